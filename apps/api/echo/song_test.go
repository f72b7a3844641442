package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ekklesia/core/song"
	"github.com/trezcool/ekklesia/core/user"
	"github.com/trezcool/ekklesia/testutil"
)

func Test_songApi(t *testing.T) {
	env := setup(t)
	singer := testutil.CreateUser(t, env.usrRepo, "Singer", "singer", "", "", []string{user.RoleWorship}, true)
	sound := testutil.CreateUser(t, env.usrRepo, "Sound", "sound", "", "", []string{user.RoleSound}, true)
	s1 := testutil.CreateSong(t, env.songRepo, "Way Maker", "Sinach")
	s2 := testutil.CreateSong(t, env.songRepo, "Amazing Grace", "John Newton")
	token := env.token(t, singer)

	tests := []httpTest{
		{
			name: "other department", method: http.MethodGet, path: "/v1/songs", token: env.token(t, sound),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "list", method: http.MethodGet, path: "/v1/songs", token: token, wantCode: http.StatusOK, wantData: marchallList(t, s2, s1)},
		{name: "search", method: http.MethodGet, path: "/v1/songs?search=sinach", token: token, wantCode: http.StatusOK, wantData: marchallList(t, s1)},
		{name: "retrieve", method: http.MethodGet, path: "/v1/songs/" + s1.ID, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, s1)},
		{name: "retrieve (unknown)", method: http.MethodGet, path: "/v1/songs/lol", token: token, wantCode: http.StatusNotFound},
		{name: "create (invalid)", method: http.MethodPost, path: "/v1/songs", token: token, body: []byte(`{"title": "  ", "link": "nope"}`), wantCode: http.StatusBadRequest},
		{
			name: "create", method: http.MethodPost, path: "/v1/songs", token: token,
			body: []byte(`{"title": "Oceans", "artist": "Hillsong", "key": "D"}`), wantCode: http.StatusCreated,
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/songs/" + s2.ID, token: token,
			body: []byte(`{"title": "Amazing Grace", "artist": "Chris Tomlin", "key": "G"}`), wantCode: http.StatusOK,
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/songs/" + s1.ID, token: token, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}

	songs, err := env.songRepo.QuerySongs(t.Context(), song.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "Amazing Grace", songs[0].Title)
	assert.Equal(t, "Chris Tomlin", songs[0].Artist)
	assert.Equal(t, "G", songs[0].Key)
	assert.Equal(t, "Oceans", songs[1].Title)
}
