package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", input: `"2025-01-02T03:04:05Z"`, want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "rfc3339 millis", input: `"2025-01-02T03:04:05.123Z"`, want: time.Date(2025, 1, 2, 3, 4, 5, 123e6, time.UTC)},
		{name: "space separated", input: `"2025-01-02 03:04:05"`, want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "epoch millis", input: `1735787045000`, want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "null", input: `null`},
		{name: "empty", input: `""`},
		{name: "garbage", input: `"yesterday"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts.Time), "got %v want %v", ts.Time, tt.want)
		})
	}
}

func TestTimestamp_MarshalZeroIsNull(t *testing.T) {
	b, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestUserPatch_Apply_ShallowMerge(t *testing.T) {
	avatar := "https://a/1.png"
	u := User{ID: 1, Email: "x@y.com", Name: "X", AvatarURL: &avatar}

	got := UserPatch{Name: strPtr("Y")}.Apply(u)
	assert.Equal(t, "Y", got.Name)
	assert.Equal(t, "x@y.com", got.Email)
	require.NotNil(t, got.AvatarURL)
	assert.Equal(t, avatar, *got.AvatarURL)

	cleared := UserPatch{AvatarURL: strPtr("")}.Apply(u)
	assert.Nil(t, cleared.AvatarURL)

	assert.Equal(t, "X", u.Name, "original must not change")
}

func TestUser_CloneDetachesAvatar(t *testing.T) {
	avatar := "a"
	u := User{AvatarURL: &avatar}
	c := u.Clone()
	*c.AvatarURL = "b"
	assert.Equal(t, "a", *u.AvatarURL)
}

func TestParseAuthPayload_FieldPriority(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantToken string
		wantName  string
		wantErr   error
	}{
		{
			name:      "token + user",
			body:      `{"token":"a.b.c","user":{"id":1,"email":"x@y.com","name":"X"}}`,
			wantToken: "a.b.c", wantName: "X",
		},
		{
			name:      "access_token + userData",
			body:      `{"access_token":"t2","userData":{"id":2,"email":"q@w.e","name":"Q"}}`,
			wantToken: "t2", wantName: "Q",
		},
		{
			name:      "token wins over authToken",
			body:      `{"authToken":"low","token":"high","user":{"id":1,"name":"X"}}`,
			wantToken: "high", wantName: "X",
		},
		{
			name:      "empty token falls through",
			body:      `{"token":"","authToken":"t3","user":{"id":1,"name":"X"}}`,
			wantToken: "t3", wantName: "X",
		},
		{name: "no token", body: `{"user":{"id":1}}`, wantErr: ErrMissingAuthData},
		{name: "no user", body: `{"token":"t"}`, wantErr: ErrMissingAuthData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseAuthPayload([]byte(tt.body))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, p.Token)
			assert.Equal(t, tt.wantName, p.User.Name)
		})
	}
}

func TestParseAuthPayload_InvalidJSON(t *testing.T) {
	_, err := ParseAuthPayload([]byte(`{`))
	require.Error(t, err)
}

func TestMessageRecord_TextPriority(t *testing.T) {
	r := MessageRecord{Message: strPtr("q"), Response: strPtr("a")}
	text, ok := r.Text(RoleUser)
	assert.True(t, ok)
	assert.Equal(t, "q", text)

	text, ok = r.Text(RoleAI)
	assert.True(t, ok)
	assert.Equal(t, "a", text)

	withContent := MessageRecord{Content: strPtr("c"), Message: strPtr("m")}
	text, _ = withContent.Text(RoleUser)
	assert.Equal(t, "c", text)

	_, ok = MessageRecord{ID: 1}.Text(RoleUser)
	assert.False(t, ok)
}

func TestMessageRecord_Kind(t *testing.T) {
	assert.Equal(t, RecordSingle, MessageRecord{Role: RoleAI}.Kind())
	assert.Equal(t, RecordExchange, MessageRecord{Message: strPtr("m")}.Kind())
}

func TestSendResult_MessagesNormalizesShapes(t *testing.T) {
	var res SendResult
	body := `{"userMessage":{"id":5,"message":"Hello"},"aiResponse":{"id":6,"response":"Hi!"}}`
	require.NoError(t, json.Unmarshal([]byte(body), &res))

	msgs := res.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ChatMessage{ID: 5, Content: "Hello", Role: RoleUser}, msgs[0])
	assert.Equal(t, ChatMessage{ID: 6, Content: "Hi!", Role: RoleAI}, msgs[1])
}

func TestSendResult_MissingTextStaysEmpty(t *testing.T) {
	var res SendResult
	require.NoError(t, json.Unmarshal([]byte(`{"userMessage":{"id":1},"aiResponse":{"id":2}}`), &res))

	msgs := res.Messages()
	assert.Equal(t, "", msgs[0].Content)
	assert.Equal(t, "", msgs[1].Content)
}
