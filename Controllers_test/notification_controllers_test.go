package Controllers_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/newrestaurant/models"
)

func TestNotificationEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, staff := s.login("staff", models.RoleStaff)
	alice, aliceToken := s.login("alice", models.RoleCustomer)
	_, bobToken := s.login("bob", models.RoleCustomer)

	payload := map[string]interface{}{"user_id": alice.ID, "title": "Table ready", "message": "Your table is ready"}
	w, _ := s.do(http.MethodPost, "/notifications", aliceToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, response := s.do(http.MethodPost, "/notifications", staff, payload)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Notification created", response["message"])
	first := dataMap(t, response)
	assert.Equal(t, false, first["is_read"])

	payload["title"] = "Dessert is on us"
	w, _ = s.do(http.MethodPost, "/notifications", staff, payload)
	require.Equal(t, http.StatusCreated, w.Code)

	w, response = s.do(http.MethodGet, "/notifications/unread-count", aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), dataMap(t, response)["unread"])

	readURL := "/notifications/" + strconv.Itoa(int(first["id"].(float64))) + "/read"
	w, _ = s.do(http.MethodPost, readURL, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, response = s.do(http.MethodPost, readURL, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Notification marked as read", response["message"])
	assert.Equal(t, true, dataMap(t, response)["is_read"])

	w, _ = s.do(http.MethodPost, readURL, aliceToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, response = s.do(http.MethodGet, "/notifications", aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "All notifications", response["message"])
	assert.Len(t, dataList(t, response), 1)

	w, response = s.do(http.MethodGet, "/notifications?all=true", aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataList(t, response), 2)

	w, response = s.do(http.MethodPost, "/notifications/read-all", aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), dataMap(t, response)["updated"])

	w, response = s.do(http.MethodGet, "/notifications/unread-count", aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), dataMap(t, response)["unread"])
}
