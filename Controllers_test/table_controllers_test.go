package Controllers_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/newrestaurant/models"
)

func TestGetAllTables(t *testing.T) {
	s := newTestServer(t)
	_, token := s.login("alice", models.RoleCustomer)
	s.seedTable("A1")
	s.seedTable("B1")

	w, response := s.do(http.MethodGet, "/tables", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "List of tables", response["message"])
	assert.Len(t, dataList(t, response), 2)

	w, response = s.do(http.MethodGet, "/tables", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, response["status"])
}

func TestCreateTable(t *testing.T) {
	s := newTestServer(t)
	_, staff := s.login("staff", models.RoleStaff)
	_, customer := s.login("alice", models.RoleCustomer)

	payload := map[string]interface{}{"table_number": "C1", "capacity": 6}
	w, response := s.do(http.MethodPost, "/tables", staff, payload)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Table created successfully", response["message"])
	data := dataMap(t, response)
	assert.Equal(t, "C1", data["table_number"])
	assert.Equal(t, float64(6), data["capacity"])

	w, _ = s.do(http.MethodPost, "/tables", staff, map[string]interface{}{"table_number": "c1", "capacity": 2})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/tables", staff, map[string]interface{}{"table_number": "D1", "capacity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/tables", customer, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateTable(t *testing.T) {
	s := newTestServer(t)
	_, staff := s.login("staff", models.RoleStaff)
	_, customer := s.login("alice", models.RoleCustomer)
	table := s.seedTable("C1")
	url := "/tables/" + strconv.Itoa(int(table.ID))

	payload := map[string]interface{}{"table_number": "C1", "capacity": 8}
	w, _ := s.do(http.MethodPatch, url, customer, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, response := s.do(http.MethodPatch, url, staff, payload)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Table updated", response["message"])
	assert.Equal(t, float64(8), dataMap(t, response)["capacity"])

	w, _ = s.do(http.MethodPatch, "/tables/abc", staff, payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPatch, "/tables/999", staff, payload)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteTable(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.login("admin", models.RoleAdmin)
	table := s.seedTable("C1")
	url := "/tables/" + strconv.Itoa(int(table.ID))

	w, response := s.do(http.MethodDelete, url, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Table deleted", response["message"])

	w, _ = s.do(http.MethodGet, url, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
