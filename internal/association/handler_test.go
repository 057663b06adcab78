package association

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type handlerFixture struct {
	t         *testing.T
	handler   *Handler
	router    http.Handler
	submitter *recordingSubmitter
	clock     time.Time
}

func newHandlerFixture(t *testing.T, dir Directory, limiter *rate.Limiter, opts ...HandlerOption) *handlerFixture {
	submitter := &recordingSubmitter{}
	h := NewHandler(dir, submitter, limiter, zap.NewNop(), opts...)
	f := &handlerFixture{t: t, handler: h, router: h.Routes(), submitter: submitter, clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	h.now = func() time.Time { return f.clock }
	return f
}

func (f *handlerFixture) sessionCount() int {
	f.handler.mu.Lock()
	defer f.handler.mu.Unlock()
	return len(f.handler.sessions)
}

func (f *handlerFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) start() string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/workflows", nil)
	require.Equal(f.t, http.StatusCreated, rec.Code)

	var resp struct {
		ID   uuid.UUID `json:"id"`
		View View      `json:"view"`
	}
	require.NoError(f.t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(f.t, resp.View.Candidates, 4)
	return "/workflows/" + resp.ID.String()
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	var v View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHandlerCreateAssociationFlow(t *testing.T) {
	f := newHandlerFixture(t, &fakeDirectory{members: testPool()}, rate.NewLimiter(rate.Inf, 1))
	base := f.start()

	rec := f.do(http.MethodPost, base+"/submit", map[string]interface{}{"actor": Actor{ID: "u1"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var rejected struct {
		View View `json:"view"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rejected))
	assert.Len(t, rejected.View.Errors, 3)

	rec = f.do(http.MethodPatch, base+"/fields/name", map[string]string{"value": "Savings Group"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodPatch, base+"/fields/contributionAmount", map[string]string{"value": "abc"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decodeView(t, rec).Draft.ContributionAmount)
	rec = f.do(http.MethodPatch, base+"/fields/contributionAmount", map[string]string{"value": "2500"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, base+"/dropdown/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeView(t, rec).DropdownOpen)

	rec = f.do(http.MethodPut, base+"/search", map[string]string{"term": "JANE"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []Member{janeSmith}, decodeView(t, rec).Candidates)

	rec = f.do(http.MethodPost, base+"/members", map[string]string{"id": "2"})
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	assert.Equal(t, []Member{janeSmith}, v.Draft.Members)
	assert.False(t, v.DropdownOpen)
	assert.Equal(t, "", v.SearchTerm)

	rec = f.do(http.MethodPost, base+"/members", map[string]string{"id": "2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeView(t, rec).Draft.Members, 1)

	rec = f.do(http.MethodPost, base+"/submit", map[string]interface{}{"actor": Actor{ID: "u1", Username: "owner"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var accepted struct {
		Message string `json:"message"`
		View    View   `json:"view"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&accepted))
	assert.Equal(t, SuccessMessage, accepted.Message)
	assert.Equal(t, "", accepted.View.Draft.Name)

	require.Len(t, f.submitter.drafts, 1)
	assert.Equal(t, "Savings Group", f.submitter.drafts[0].Name)
	assert.Equal(t, 2500.0, f.submitter.drafts[0].ContributionAmount)
	assert.Equal(t, []Member{janeSmith}, f.submitter.drafts[0].Members)
}

func TestHandlerRemoveMember(t *testing.T) {
	f := newHandlerFixture(t, &fakeDirectory{members: testPool()}, rate.NewLimiter(rate.Inf, 1))
	base := f.start()

	f.do(http.MethodPost, base+"/members", map[string]string{"id": "1"})
	f.do(http.MethodPost, base+"/members", map[string]string{"id": "3"})

	rec := f.do(http.MethodDelete, base+"/members/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []Member{mikeJohnson}, decodeView(t, rec).Draft.Members)

	rec = f.do(http.MethodDelete, base+"/members/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []Member{mikeJohnson}, decodeView(t, rec).Draft.Members)
}

func TestHandlerErrors(t *testing.T) {
	f := newHandlerFixture(t, &fakeDirectory{members: testPool()}, rate.NewLimiter(rate.Inf, 1))
	base := f.start()

	rec := f.do(http.MethodGet, "/workflows/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/workflows/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, base+"/members", map[string]string{"id": "99"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPatch, base+"/fields/name", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerStartDirectoryFailure(t *testing.T) {
	f := newHandlerFixture(t, &fakeDirectory{err: errors.New("down")}, rate.NewLimiter(rate.Inf, 1))

	rec := f.do(http.MethodPost, "/workflows", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandlerSubmitRateLimited(t *testing.T) {
	f := newHandlerFixture(t, &fakeDirectory{members: testPool()}, rate.NewLimiter(0, 0))
	base := f.start()

	rec := f.do(http.MethodPost, base+"/submit", map[string]interface{}{"actor": Actor{ID: "u1"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandlerEvictsIdleWorkflows(t *testing.T) {
	f := newHandlerFixture(t, &fakeDirectory{members: testPool()}, rate.NewLimiter(rate.Inf, 1),
		WithSessionLimits(10*time.Minute, 100))

	abandoned := f.start()
	for i := 0; i < 9; i++ {
		f.start()
	}
	active := f.start()
	require.Equal(t, 11, f.sessionCount())

	f.clock = f.clock.Add(6 * time.Minute)
	rec := f.do(http.MethodGet, active, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f.clock = f.clock.Add(6 * time.Minute)
	f.start()

	assert.Equal(t, 2, f.sessionCount())
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, abandoned, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, active, nil).Code)
}

func TestHandlerCapsOpenWorkflows(t *testing.T) {
	dir := &countingDirectory{members: testPool()}
	f := newHandlerFixture(t, dir, rate.NewLimiter(rate.Inf, 1), WithSessionLimits(time.Hour, 3))

	for i := 0; i < 3; i++ {
		f.start()
	}

	rec := f.do(http.MethodPost, "/workflows", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 3, f.sessionCount())
	assert.Equal(t, 3, dir.calls)

	f.clock = f.clock.Add(2 * time.Hour)
	f.start()
	assert.Equal(t, 1, f.sessionCount())
}

func TestHandlerSubmitUnknownWorkflowKeepsToken(t *testing.T) {
	f := newHandlerFixture(t, &fakeDirectory{members: testPool()}, rate.NewLimiter(0, 1))
	base := f.start()

	rec := f.do(http.MethodPost, "/workflows/"+uuid.NewString()+"/submit", map[string]interface{}{"actor": Actor{ID: "u1"}})
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodPost, "/workflows/bad-id/submit", map[string]interface{}{"actor": Actor{ID: "u1"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, base+"/submit", map[string]interface{}{"actor": Actor{ID: "u1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPost, base+"/submit", map[string]interface{}{"actor": Actor{ID: "u1"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

type countingDirectory struct {
	members []Member
	calls   int
}

func (d *countingDirectory) ListMembers(ctx context.Context) ([]Member, error) {
	d.calls++
	return d.members, nil
}
