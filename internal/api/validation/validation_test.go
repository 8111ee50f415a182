package validation

import (
	"errors"
	"testing"

	"starhawk-api-server/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := Register(); err != nil {
		panic(err)
	}
	m.Run()
}

func TestMessage_Register(t *testing.T) {
	cases := []struct {
		name string
		req  models.RegisterRequest
		want string
	}{
		{"missing email", models.RegisterRequest{Password: "x", Role: "farmer", Name: "A"}, "email is required"},
		{"bad email", models.RegisterRequest{Email: "nope", Password: "x", Role: "farmer", Name: "A"}, "email must be a valid email"},
		{"unknown role", models.RegisterRequest{Email: "a@b.com", Password: "x", Role: "pilot", Name: "A"}, "role must be one of [farmer, insurer, assessor, government, admin]"},
		{"negative farm size", models.RegisterRequest{Email: "a@b.com", Password: "x", Role: "farmer", Name: "A", FarmSize: -1}, "farmSize must be at least 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.want, Message(err))
		})
	}
}

func TestMessage_Valid(t *testing.T) {
	req := models.RegisterRequest{Email: "a@b.com", Password: "x", Role: "assessor", Name: "A"}
	assert.NoError(t, binding.Validator.ValidateStruct(req))
}

func TestMessage_OneOf(t *testing.T) {
	req := models.CreateClaimRequest{FieldID: "f", Crop: "maize", DamageType: "meteor", Amount: 10}
	err := binding.Validator.ValidateStruct(req)
	require.Error(t, err)
	assert.Equal(t, "damageType must be one of [drought, flood, pest, disease, hail, fire, other]", Message(err))
}

func TestMessage_NonValidationErrors(t *testing.T) {
	assert.Equal(t, "request body is required", Message(errors.New("EOF")))
	assert.Equal(t, "invalid request", Message(errors.New("boom")))
}
