package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vestlock/internal/authz"
	"github.com/roach88/vestlock/internal/ir"
)

func TestSelectKind(t *testing.T) {
	active := st(1000, 100, 0, 150)
	terminated := st(1000, 100, 900, 150)

	tests := []struct {
		name  string
		class authz.Class
		old   ir.State
		next  *ir.State
		want  Kind
		code  ir.Code
	}{
		{"counters unchanged, stranger", authz.PermissionlessAction, active, ptr(st(1000, 100, 0, 160)), KindSecurityUpdate, ""},
		{"counters unchanged, creator", authz.CreatorAction, terminated, ptr(st(1000, 100, 900, 160)), KindSecurityUpdate, ""},
		{"beneficiary claims", authz.BeneficiaryAction, active, ptr(st(1000, 200, 0, 160)), KindBeneficiaryClaim, ""},
		{"beneficiary closes", authz.BeneficiaryAction, active, nil, KindBeneficiaryClaim, ""},
		{"beneficiary after termination", authz.BeneficiaryAction, terminated, nil, KindPostTerminationClaim, ""},
		{"creator terminates", authz.CreatorAction, active, ptr(st(1000, 100, 900, 160)), KindCreatorTermination, ""},
		{"creator again", authz.CreatorAction, terminated, nil, "", ir.CodeAlreadyTerminated},
		{"stranger claims", authz.PermissionlessAction, active, ptr(st(1000, 200, 0, 160)), "", ir.CodeUnauthorized},
		{"stranger closes", authz.PermissionlessAction, terminated, nil, "", ir.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := SelectKind(tt.class, tt.old, tt.next)
			if tt.code != "" {
				requireCode(t, err, tt.code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("Withdraw")
	assert.Error(t, err)
}

func TestEveryKindHasRule(t *testing.T) {
	for _, k := range Kinds() {
		assert.NotNil(t, rules[k], "kind %s", k)
	}
}
