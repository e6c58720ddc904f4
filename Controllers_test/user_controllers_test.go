package Controllers_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/newrestaurant/models"
)

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	payload := map[string]string{"username": "Alice", "email": "alice@example.com", "password": "secret1"}
	w, response := s.do(http.MethodPost, "/register", "", payload)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User registered", response["message"])
	user := dataMap(t, response)
	assert.Equal(t, "customer", user["role"])
	assert.NotContains(t, user, "password_hash")

	w, _ = s.do(http.MethodPost, "/register", "", payload)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/register", "", map[string]string{"username": "bob", "email": "bob@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/register", "", map[string]string{"username": "eve", "email": "eve@example.com", "password": "secret1", "role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, response = s.do(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, response["status"])

	w, response = s.do(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Login successful", response["message"])
	data := dataMap(t, response)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	permissions := data["permissions"].(map[string]interface{})
	assert.Equal(t, true, permissions["can_order"])
	assert.Equal(t, false, permissions["can_manage_menu"])

	w, response = s.do(http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Profile data retrieved successfully", response["message"])
	assert.Equal(t, "alice@example.com", dataMap(t, response)["email"])

	w, response = s.do(http.MethodPost, "/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out", response["message"])

	w, _ = s.do(http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfileEndpoint(t *testing.T) {
	s := newTestServer(t)
	_, token := s.login("alice", models.RoleCustomer)
	s.login("bob", models.RoleCustomer)

	w, _ := s.do(http.MethodPatch, "/profile", token, map[string]string{"username": "alice", "email": "bob@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, response := s.do(http.MethodPatch, "/profile", token, map[string]string{"username": "alice2", "email": "alice2@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Profile updated", response["message"])
	assert.Equal(t, "alice2", dataMap(t, response)["username"])
}

func TestPermissionsForAnonymousAndStaff(t *testing.T) {
	s := newTestServer(t)
	_, staff := s.login("staff", models.RoleStaff)

	w, _ := s.do(http.MethodGet, "/me/permissions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, response := s.do(http.MethodGet, "/me/permissions", staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	permissions := dataMap(t, response)
	assert.Equal(t, true, permissions["can_manage_menu"])
	assert.Equal(t, true, permissions["can_view_statistics"])
	assert.Equal(t, false, permissions["can_manage_user_roles"])
}

func TestAdminManagesUsers(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.login("admin", models.RoleAdmin)
	_, customer := s.login("alice", models.RoleCustomer)
	staffUser, staff := s.login("staff", models.RoleStaff)

	w, _ := s.do(http.MethodGet, "/users", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	staffPayload := map[string]string{"username": "cook", "email": "cook@example.com", "password": "secret1", "role": "staff"}
	w, _ = s.do(http.MethodPost, "/users", customer, staffPayload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// staff may list users but not create accounts or change roles
	w, _ = s.do(http.MethodPost, "/users", staff, staffPayload)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodPatch, "/users/"+strconv.Itoa(int(staffUser.ID))+"/role", staff, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/users", staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, response := s.do(http.MethodPost, "/users", admin, staffPayload)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User created", response["message"])
	cook := dataMap(t, response)
	assert.Equal(t, "staff", cook["role"])

	roleURL := "/users/" + strconv.Itoa(int(cook["id"].(float64))) + "/role"
	w, response = s.do(http.MethodPatch, roleURL, admin, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User role updated", response["message"])
	assert.Equal(t, "admin", dataMap(t, response)["role"])

	w, _ = s.do(http.MethodPatch, roleURL, admin, map[string]string{"role": "chef"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, response = s.do(http.MethodGet, "/users", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataList(t, response), 4)
}
