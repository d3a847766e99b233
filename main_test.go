package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/config"
	"github.com/fragmede/postdesk/internal/testutil/fakeapi"
)

func testConfig(baseURL string) config.Config {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.RequestTimeout = 2 * time.Second
	return cfg
}

func TestRunCommand_List(t *testing.T) {
	srv := fakeapi.New(t)
	a := srv.AddPost(api.Post{Title: "a", IsPublished: true})
	b := srv.AddPost(api.Post{Title: "b"})

	var stdout, stderr bytes.Buffer
	code := runCommand(testConfig(srv.URL), []string{"list"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var got []api.Post
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, []api.Post{a, b}, got)
	assert.Zero(t, srv.Calls("GET /auth/users/me"), "commands never load the session")
}

func TestRunCommand_Show(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddPost(api.Post{Title: "a"})
	b := srv.AddPost(api.Post{Title: "b"})

	var stdout, stderr bytes.Buffer
	code := runCommand(testConfig(srv.URL), []string{"show", "2"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var got []api.Post
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, []api.Post{b}, got)
}

func TestRunCommand_Errors(t *testing.T) {
	srv := fakeapi.New(t)
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{name: "missing post", args: []string{"show", "9"}, code: 1, want: "post not found"},
		{name: "show without ids", args: []string{"show"}, code: 2, want: "usage"},
		{name: "unknown", args: []string{"publish"}, code: 2, want: `unknown command "publish"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := runCommand(testConfig(srv.URL), tt.args, &stdout, &stderr)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr.String(), tt.want)
			assert.Empty(t, stdout.String())
		})
	}
}
