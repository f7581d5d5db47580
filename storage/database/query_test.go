package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_createUserQuery(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		want     string
	}{
		{name: "plain", user: "moodle", password: "secret", want: `CREATE USER "moodle" CREATEDB ENCRYPTED PASSWORD 'secret'`},
		{name: "quotes", user: `mo"odle`, password: "s3cr'et", want: `CREATE USER "mo""odle" CREATEDB ENCRYPTED PASSWORD 's3cr''et'`},
		{name: "injection", user: "moodle; DROP TABLE x", password: "'; DROP TABLE x; --", want: `CREATE USER "moodle; DROP TABLE x" CREATEDB ENCRYPTED PASSWORD '''; DROP TABLE x; --'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, createUserQuery(tt.user, tt.password))
		})
	}
}

func Test_createDBQuery(t *testing.T) {
	assert.Equal(t, `CREATE DATABASE "moodle"`, createDBQuery("moodle"))
	assert.Equal(t, `CREATE DATABASE "moo""dle; DROP DATABASE x"`, createDBQuery(`moo"dle; DROP DATABASE x`))
}
