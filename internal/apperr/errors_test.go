package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	nf := NotFound("activity", 7)
	br := BadRequest("user %d owns activity", 3)
	fatal := Fatal("failed to commit", errors.New("disk full"))

	assert.True(t, IsNotFound(nf))
	assert.False(t, IsBadRequest(nf))
	assert.True(t, IsBadRequest(br))
	assert.Equal(t, "NOT_FOUND: activity 7 not found", nf.Error())
	assert.Equal(t, "BAD_REQUEST: user 3 owns activity", br.Error())
	assert.Contains(t, fatal.Error(), "disk full")

	nff := NotFoundf("user %d has no skills to reset", 4)
	assert.True(t, IsNotFound(nff))
	assert.Equal(t, "user 4 has no skills to reset", nff.Message)
}

func TestWrappedErrorsKeepKind(t *testing.T) {
	err := fmt.Errorf("context: %w", BadRequest("nope"))
	assert.True(t, IsBadRequest(err))
	assert.Equal(t, KindFatal, KindOf(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("answer", 1)))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(BadRequest("x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestLookup(t *testing.T) {
	sentinel := errors.New("record not found")

	err := Lookup(fmt.Errorf("failed to get activity 4: %w", sentinel), sentinel, "activity", 4)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "NOT_FOUND: activity 4 not found", err.Error())

	err = Lookup(errors.New("connection refused"), sentinel, "activity", 4)
	assert.Equal(t, KindFatal, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}
