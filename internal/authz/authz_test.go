package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vestlock/internal/ir"
)

func TestClassify(t *testing.T) {
	var creator, beneficiary, stranger ir.Hash32
	creator[0] = 1
	beneficiary[0] = 2
	stranger[0] = 3
	cfg := ir.Config{Creator: creator, Beneficiary: beneficiary}

	tests := []struct {
		name  string
		creds []ir.Hash32
		want  Class
	}{
		{"no credentials", nil, PermissionlessAction},
		{"stranger", []ir.Hash32{stranger}, PermissionlessAction},
		{"creator", []ir.Hash32{creator}, CreatorAction},
		{"beneficiary", []ir.Hash32{beneficiary}, BeneficiaryAction},
		{"beneficiary among others", []ir.Hash32{stranger, beneficiary}, BeneficiaryAction},
		{"both signed", []ir.Hash32{beneficiary, creator}, CreatorAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(cfg, tt.creds))
		})
	}
}

func TestClassifyExactMatchOnly(t *testing.T) {
	var creator ir.Hash32
	creator[0] = 1
	near := creator
	near[31] = 1

	assert.Equal(t, PermissionlessAction, Classify(ir.Config{Creator: creator}, []ir.Hash32{near}))
}

func TestClassNames(t *testing.T) {
	for _, c := range []Class{PermissionlessAction, BeneficiaryAction, CreatorAction} {
		parsed, err := ParseClass(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)

		text, err := c.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, c.String(), string(text))

		var back Class
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}

	_, err := ParseClass("Admin")
	assert.Error(t, err)
	var bad Class
	assert.Error(t, bad.UnmarshalText([]byte("Admin")))
	assert.Equal(t, "Unknown", Class(9).String())
}
