package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio-backend/internal/platform/apperr"
)

func floatPtr(f float64) *float64 { return &f }

// Validation happens before any store call, so a nil DB is fine here.
func newValidationService() *Service {
	return &Service{store: NewStore(nil)}
}

func Test_CreateTitle_InputValidation(t *testing.T) {
	svc := newValidationService()
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateTitleRequest
	}{
		{"missing_isbn", CreateTitleRequest{Name: "Algorithms"}},
		{"missing_name", CreateTitleRequest{ISBN: "9780262033848"}},
		{"blank_isbn", CreateTitleRequest{ISBN: "   ", Name: "Algorithms"}},
		{"bad_publish_date", CreateTitleRequest{ISBN: "9780262033848", Name: "Algorithms", PublishDate: strPtr("2009/07/31")}},
		{"negative_price", CreateTitleRequest{ISBN: "9780262033848", Name: "Algorithms", Price: floatPtr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTitle(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
		})
	}
}

func Test_CreateCopy_InputValidation(t *testing.T) {
	svc := newValidationService()
	ctx := context.Background()

	for _, in := range []CreateCopyRequest{
		{ISBN: "", CopyID: "C001"},
		{ISBN: "9780262033848", CopyID: ""},
		{ISBN: " ", CopyID: " "},
	} {
		_, err := svc.CreateCopy(ctx, in)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	}
}

func Test_SetCopyCondition_InputValidation(t *testing.T) {
	svc := newValidationService()
	ctx := context.Background()

	for _, cond := range []string{"", "BROKEN", "normal"} {
		_, err := svc.SetCopyCondition(ctx, "C001", SetCopyConditionRequest{Condition: cond})
		require.Error(t, err, "condition %q", cond)
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	}
}
