package oauth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userJSON = `{"id":1,"email":"x@y.com","name":"X"}`

func TestParseCallback_Success(t *testing.T) {
	q := "token=a.b.c&user=" + url.QueryEscape(userJSON)

	res := ParseCallback(q)
	require.Equal(t, KindSuccess, res.Kind)
	require.NoError(t, res.Err())
	assert.Equal(t, "a.b.c", res.Token)
	assert.Equal(t, int64(1), res.User.ID)
	assert.Equal(t, "X", res.User.Name)
}

func TestParseCallback_AlternativeNames(t *testing.T) {
	q := "access_token=t1&userData=" + url.QueryEscape(userJSON)
	res := ParseCallback(q)
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, "t1", res.Token)

	q = "authToken=t2&userData=" + url.QueryEscape(userJSON)
	res = ParseCallback(q)
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, "t2", res.Token)
}

func TestParseCallback_PriorityOrder(t *testing.T) {
	q := "authToken=low&access_token=mid&token=high&userData=" + url.QueryEscape(`{"id":2}`) + "&user=" + url.QueryEscape(userJSON)
	res := ParseCallback(q)
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, "high", res.Token)
	assert.Equal(t, int64(1), res.User.ID)
}

func TestParseCallback_DoubleEncodedUser(t *testing.T) {
	q := "token=a.b.c&user=" + url.QueryEscape(url.QueryEscape(userJSON))
	res := ParseCallback(q)
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, "x@y.com", res.User.Email)
}

func TestParseCallback_ErrorParamWins(t *testing.T) {
	q := "token=a.b.c&user=" + url.QueryEscape(userJSON) + "&error=" + url.QueryEscape("access%20denied")
	res := ParseCallback(q)
	require.Equal(t, KindProviderError, res.Kind)
	assert.Equal(t, "access denied", res.Message)
	require.ErrorIs(t, res.Err(), ErrProvider)
}

func TestParseCallback_MissingData(t *testing.T) {
	res := ParseCallback("code=abc&state=xyz&token=a.b.c")
	require.Equal(t, KindMissingData, res.Kind)
	assert.Equal(t, "Missing authentication data. Received parameters: code=abc, state=xyz, token=a.b.c", res.Message)
	require.ErrorIs(t, res.Err(), ErrMissingAuthData)
}

func TestParseCallback_NoParams(t *testing.T) {
	res := ParseCallback("")
	require.Equal(t, KindMissingData, res.Kind)
	assert.Equal(t, "Missing authentication data. Received parameters: none", res.Message)
}

func TestParseCallback_CorruptUser(t *testing.T) {
	res := ParseCallback("token=a.b.c&user=" + url.QueryEscape("{broken"))
	require.Equal(t, KindInvalid, res.Kind)
	assert.Contains(t, res.Message, "Failed to process authentication: ")
	require.ErrorIs(t, res.Err(), ErrInvalidCallback)
}
