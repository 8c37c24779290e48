package scheduling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinicdesk/availability_bot/internal/model"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticToken(token string) TokenProvider {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:    srv.URL,
		Token:      staticToken("secret-token"),
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return client
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{BaseURL: "", Token: staticToken("t")})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "http://api.example.com", Token: nil})
	assert.Error(t, err)

	// Хвостовой слэш нормализуется
	c, err := New(Config{BaseURL: "http://api.example.com/", Token: staticToken("t")})
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL)
}

func TestListSlots(t *testing.T) {
	var gotPath, gotAuth, gotFrom, gotTo string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")

		assert.Equal(t, http.MethodGet, r.Method)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"slots": []map[string]interface{}{
				{
					"id":      "rec_1",
					"date":    "2024-06-05",
					"slot_id": "SLOT_3",
					"status":  "RESERVED",
				},
				{
					"id":      "rec_2",
					"date":    "2024-06-06",
					"slot_id": "SLOT_1",
					"status":  "BUSY",
					"appointment": map[string]string{
						"id":           "apt_1",
						"patient_name": "Сидорова А.А.",
					},
				},
			},
		})
	})

	from := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	slots, err := client.ListSlots(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/schedule/slots", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "2024-06-03", gotFrom)
	assert.Equal(t, "2024-06-10", gotTo)

	require.Len(t, slots, 2)
	assert.Equal(t, "rec_1", slots[0].ID)
	assert.Equal(t, model.Slot3, slots[0].SlotID)
	assert.Equal(t, model.SlotStatusReserved, slots[0].Status)
	assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), slots[0].Date)

	require.NotNil(t, slots[1].Appointment)
	assert.Equal(t, "Сидорова А.А.", slots[1].Appointment.PatientName)
}

func TestCreateSlot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/schedule/slots", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-06-05", body["date"])
		assert.Equal(t, "SLOT_3", body["slot_id"])
		assert.Equal(t, "RESERVED", body["status"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"id":      "rec_9",
			"date":    "2024-06-05",
			"slot_id": "SLOT_3",
			"status":  "RESERVED",
		})
	})

	slot, err := client.CreateSlot(context.Background(),
		time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), model.Slot3)
	require.NoError(t, err)

	assert.Equal(t, "rec_9", slot.ID)
	assert.True(t, slot.IsMaterialized())
}

func TestUpdateSlotStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/schedule/slots/rec_7", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "RESERVED", body["status"])

		json.NewEncoder(w).Encode(map[string]string{
			"id":      "rec_7",
			"date":    "2024-06-05",
			"slot_id": "SLOT_1",
			"status":  "RESERVED",
		})
	})

	slot, err := client.UpdateSlotStatus(context.Background(), "rec_7", model.SlotStatusReserved)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusReserved, slot.Status)
}

func TestDeleteSlot(t *testing.T) {
	var gotMethod, gotPath string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.DeleteSlot(context.Background(), "rec_7")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/v1/schedule/slots/rec_7", gotPath)
}

func TestServerErrorMessageSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "Slot already booked"})
	})

	_, err := client.CreateSlot(context.Background(),
		time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), model.Slot1)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Slot already booked", apiErr.Message)
	assert.Equal(t, "Slot already booked", apiErr.Error())
}

func TestServerErrorWithoutMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.DeleteSlot(context.Background(), "rec_7")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Message)
	assert.Contains(t, apiErr.Error(), "500")
}

func TestErrorFieldFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid slot id"})
	})

	err := client.DeleteSlot(context.Background(), "rec_7")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid slot id", apiErr.Message)
}

func TestTokenProviderFailureShortCircuits(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	})
	client.token = func(ctx context.Context) (string, error) {
		return "", context.DeadlineExceeded
	}

	err := client.DeleteSlot(context.Background(), "rec_7")
	require.Error(t, err)
	assert.Equal(t, 0, requests, "request must not be sent without a token")
}
