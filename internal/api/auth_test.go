package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jcouture/go-gameroom/internal/database"
	"github.com/jcouture/go-gameroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateAccountHandler(t *testing.T) {
	expectedUser := database.User{
		Id:           1,
		Username:     "newuser",
		EmailAddress: "newuser@example.com",
		PasswordHash: "hashedpassword",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	tcases := []struct {
		name     string
		body     any
		wantCode int
		mockErr  error
	}{
		{
			name:     "creates the account",
			body:     RegisterRequest{Email: "newuser@example.com", Username: "newuser", Password: "password"},
			wantCode: http.StatusCreated,
		},
		{
			name:     "missing fields",
			body:     RegisterRequest{Email: "newuser@example.com"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "database error",
			body:     RegisterRequest{Email: "newuser@example.com", Username: "newuser", Password: "password"},
			wantCode: http.StatusInternalServerError,
			mockErr:  assert.AnError,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockGameRoomRepository{}
			defer db.AssertExpectations(t)

			if tc.wantCode != http.StatusBadRequest {
				db.On("CreateAccount", mock.MatchedBy(func(params database.CreateAccountParams) bool {
					return params.Username == "newuser" && params.EmailAddress == "newuser@example.com" && params.PasswordHash != "password"
				})).Return(expectedUser, tc.mockErr).Once()
			}

			app := newTestApp(t, db)

			body, _ := json.Marshal(tc.body)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
			app.createAccount(rr, req)

			assert.Equal(t, tc.wantCode, rr.Code)
			if tc.wantCode == http.StatusCreated {
				var user types.User
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
				assert.Equal(t, expectedUser.Username, user.Username)
				assert.Empty(t, user.Password, "expected no password material in the response")
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	passwordHash, err := hashPassword("password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	dbUser := database.User{
		Id:           1,
		Username:     "user",
		EmailAddress: "user@example.com",
		PasswordHash: passwordHash,
	}

	t.Run("sets a token cookie on success", func(t *testing.T) {
		db := &database.MockGameRoomRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountByEmail", "user@example.com").Return(dbUser, nil).Once()

		app := newTestApp(t, db)

		body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: "password"})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		app.login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		cookie := findCookie(rr, tokenCookieKey)
		if assert.NotNil(t, cookie, "expected a token cookie") {
			userId, err := app.extractUserIdFromToken(cookie.Value)
			assert.NoError(t, err, "expected the cookie to carry a valid token")
			assert.Equal(t, 1, userId)
			assert.True(t, cookie.HttpOnly, "expected an http-only cookie")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		db := &database.MockGameRoomRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountByEmail", "user@example.com").Return(dbUser, nil).Once()

		app := newTestApp(t, db)

		body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: "wrong"})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		app.login(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, findCookie(rr, tokenCookieKey), "expected no cookie on failure")
	})

	t.Run("unknown email", func(t *testing.T) {
		db := &database.MockGameRoomRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountByEmail", "ghost@example.com").Return(database.User{}, sql.ErrNoRows).Once()

		app := newTestApp(t, db)

		body, _ := json.Marshal(LoginRequest{Email: "ghost@example.com", Password: "password"})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		app.login(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("empty body fields", func(t *testing.T) {
		db := &database.MockGameRoomRepository{}
		app := newTestApp(t, db)

		body, _ := json.Marshal(LoginRequest{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		app.login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSessionHandler(t *testing.T) {
	t.Run("returns the current user", func(t *testing.T) {
		db := &database.MockGameRoomRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountById", 1).Return(database.User{Id: 1, Username: "user", EmailAddress: "user@example.com"}, nil).Once()

		app := newTestApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.session(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var user types.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
		assert.Equal(t, 1, user.Id)
	})

	t.Run("missing user id in context", func(t *testing.T) {
		db := &database.MockGameRoomRepository{}
		app := newTestApp(t, db)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		app.session(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	db := &database.MockGameRoomRepository{}
	app := newTestApp(t, db)

	rr := httptest.NewRecorder()
	app.logout(rr, httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)

	cookie := findCookie(rr, tokenCookieKey)
	if assert.NotNil(t, cookie, "expected the cookie to be overwritten") {
		assert.Empty(t, cookie.Value, "expected an empty token")
		assert.True(t, cookie.Expires.Before(time.Now()), "expected an expired cookie")
	}
}

func TestJwtRoundTrip(t *testing.T) {
	db := &database.MockGameRoomRepository{}
	app := newTestApp(t, db)

	token, err := app.createJwtForSession(types.User{Id: 42}, time.Hour)
	assert.NoError(t, err)

	userId, err := app.extractUserIdFromToken(token)
	assert.NoError(t, err)
	assert.Equal(t, 42, userId)

	t.Run("expired token is rejected", func(t *testing.T) {
		expired, err := app.createJwtForSession(types.User{Id: 42}, -time.Hour)
		assert.NoError(t, err)

		_, err = app.extractUserIdFromToken(expired)
		assert.Error(t, err, "expected an expired token to be rejected")
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		other := newTestApp(t, db)
		other.signingKey = []byte("another_signing_key")

		forged, err := other.createJwtForSession(types.User{Id: 42}, time.Hour)
		assert.NoError(t, err)

		_, err = app.extractUserIdFromToken(forged)
		assert.Error(t, err, "expected a foreign signature to be rejected")
	})
}

func Test_hashPassword_verifyPassword(t *testing.T) {
	hash, err := hashPassword("password")
	assert.NoError(t, err)
	assert.NotEqual(t, "password", hash, "expected the password to be hashed")

	assert.True(t, verifyPassword(hash, "password"))
	assert.False(t, verifyPassword(hash, "wrong"))
}
