package feedback

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/myfeedback/core"
)

var (
	pageFormatTag   = "pageformat"
	pageFormatText  = "invalid page format"
	pageFormatRegex = regexp.MustCompile(`^[a-z0-9_]+(-[a-z0-9_]+)*$`)
)

// InitValidators registers the block's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(pageFormatTag, pageFormatValidation)
	core.RegisterCustomTranslation(validate, translator, pageFormatTag, pageFormatText)
}

// BlockRequest holds the page the block is requested for.
type BlockRequest struct {
	Page string `query:"page" validate:"omitempty,pageformat"`
}

func (br *BlockRequest) Validate(validate *validator.Validate) error {
	br.Page = core.CleanString(br.Page, true /* lower */)
	if err := validate.Struct(br); err != nil {
		return err
	}
	if br.Page != "" && !IsApplicable(br.Page) {
		return core.NewValidationError(ErrFormatNotApplicable, core.FieldError{Field: "page", Error: ErrFormatNotApplicable.Error()})
	}
	return nil
}

// pageFormatValidation only allows page types such as "my" or "mod-assign-view".
func pageFormatValidation(fl validator.FieldLevel) bool {
	return pageFormatRegex.MatchString(fl.Field().String())
}
