package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "inro/pkg/domain-errors"
)

type sample struct {
	BirthDate string   `validate:"required,datetime=2006-01-02"`
	TagType   string   `validate:"omitempty,oneof=iso7816 felica none"`
	Command   string   `validate:"omitempty,apduhex"`
	Token     string   `validate:"omitempty,notblank"`
	Exchanges []string `validate:"max=2"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantMsg string
	}{
		{name: "missing birth date", in: sample{}, wantMsg: "birth_date is required"},
		{name: "wrong date layout", in: sample{BirthDate: "1999/06/15"}, wantMsg: "birth_date must match 2006-01-02"},
		{name: "unknown tag type", in: sample{BirthDate: "1999-06-15", TagType: "nfc-a"}, wantMsg: "tag_type must be one of [iso7816 felica none]"},
		{name: "odd hex", in: sample{BirthDate: "1999-06-15", Command: "00B"}, wantMsg: "command must be hex encoded bytes"},
		{name: "blank token", in: sample{BirthDate: "1999-06-15", Token: "   "}, wantMsg: "token must not be blank"},
		{name: "too many exchanges", in: sample{BirthDate: "1999-06-15", Exchanges: []string{"a", "b", "c"}}, wantMsg: "exchanges must be at most 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Validate(sample{BirthDate: "1999-06-15", TagType: "iso7816", Command: "00 B0 00 00 00"}))
	})
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("ttl", 5, "min=1"))
	err := Var("ttl", 0, "min=1")
	require.Error(t, err)
	assert.Equal(t, "ttl must be at least 1", err.Error())
}

func TestIsAPDUHex(t *testing.T) {
	assert.True(t, IsAPDUHex("9000"))
	assert.True(t, IsAPDUHex("90 00"))
	assert.False(t, IsAPDUHex(""))
	assert.False(t, IsAPDUHex("900"))
	assert.False(t, IsAPDUHex("zz"))
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "birth_date", toSnakeCase("BirthDate"))
	assert.Equal(t, "tag_type", toSnakeCase("TagType"))
	assert.Equal(t, "apdu_hex", toSnakeCase("APDUHex"))
	assert.Equal(t, "token", toSnakeCase("Token"))
}
