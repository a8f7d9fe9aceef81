package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrToggleInFlight, http.StatusConflict},
		{models.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: event 3: %w", models.ErrQuery, models.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad date", models.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", models.ErrImageUpload, helpers.ErrImageTooLarge), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: bucket refused", models.ErrImageUpload), http.StatusBadGateway},
		{models.ErrAuth, http.StatusUnauthorized},
		{helpers.ErrInvalidToken, http.StatusUnauthorized},
		{models.ErrPersist, http.StatusBadGateway},
		{context.Canceled, http.StatusRequestTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
