package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/common/config"
	channelservice "contest-bot/internal/features/channel/service"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/features/contest/models/dto"
	"contest-bot/internal/features/contest/repository/memory"
	"contest-bot/internal/features/contest/service"
	"contest-bot/internal/features/notification"
	"contest-bot/internal/features/operator"
	"contest-bot/internal/platform/chat"
	"contest-bot/internal/platform/chat/chattest"
)

const (
	botToken   = "123:secret"
	creatorID  = int64(7)
	operatorID = int64(1)
)

type fixture struct {
	repo    *memory.Repository
	contest *models.Contest
	cfg     *config.Config
	svc     *service.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := chattest.New()
	p.AddChannel(-1500, "target")

	repo := memory.NewRepository()
	operators := operator.NewSet([]int64{operatorID})
	publisher := service.NewPublisher(repo, p, notification.NewService(p, operators), "contestbot")
	c, err := publisher.Publish(context.Background(), models.Contest{
		Conditions:  "Comment",
		Channels:    []string{"target"},
		WinnerCount: 1,
		CreatorID:   creatorID,
	}, &chat.Chat{ID: -1500, Username: "target"})
	require.NoError(t, err)
	_, err = repo.AddParticipant(context.Background(), c.ID, models.Participant{UserID: 42, Name: "Alice"})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Origin = "*"
	cfg.Telegram.BotToken = botToken
	cfg.Telegram.InitDataTTL = time.Hour

	return &fixture{
		repo:    repo,
		contest: c,
		cfg:     cfg,
		svc:     service.NewService(repo, channelservice.NewGate(p), operators),
	}
}

func (f *fixture) router(redisClient *redis.Client) http.Handler {
	return NewRouter(f.cfg, f.svc, redisClient)
}

// signInitData builds Mini App init data for userID signed with botToken.
func signInitData(userID int64) string {
	values := map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"query_id":  "AAH",
		"user":      fmt.Sprintf(`{"id":%d,"first_name":"Test"}`, userID),
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	q := url.Values{}
	for k, v := range values {
		q.Set(k, v)
	}
	q.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return q.Encode()
}

func get(t *testing.T, h http.Handler, path string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != 0 {
		req.Header.Set("X-Telegram-Init-Data", signInitData(userID))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)
	h := f.router(nil)

	assert.Equal(t, http.StatusOK, get(t, h, "/health", 0).Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/live", 0).Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/ready", 0).Code)
}

func TestReadyChecksRedis(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	h := f.router(client)

	assert.Equal(t, http.StatusOK, get(t, h, "/ready", 0).Code)

	mr.Close()
	w := get(t, h, "/ready", 0)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis unavailable")
}

func TestGetContest(t *testing.T) {
	f := newFixture(t)
	h := f.router(nil)

	w := get(t, h, "/api/v1/contests/"+f.contest.ID, 0)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ContestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, f.contest.ID, resp.ID)
	assert.Equal(t, "target", resp.Channel)
	assert.Equal(t, 1, resp.Participants)
	assert.True(t, resp.Active)

	w = get(t, h, "/api/v1/contests/12", 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(t, h, "/api/v1/contests/F000001", 0)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestMyContestsRequiresInitData(t *testing.T) {
	f := newFixture(t)
	h := f.router(nil)

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/v1/me/contests", 0).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/contests", nil)
	req.Header.Set("X-Telegram-Init-Data", strings.Replace(signInitData(creatorID), "hash=", "hash=00", 1))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(t, h, "/api/v1/me/contests", creatorID)
	require.Equal(t, http.StatusOK, w.Code)
	var resp []dto.ContestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, f.contest.ID, resp[0].ID)

	w = get(t, h, "/api/v1/me/contests", 99)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestStatsForOperatorsOnly(t *testing.T) {
	f := newFixture(t)
	h := f.router(nil)

	assert.Equal(t, http.StatusForbidden, get(t, h, "/api/v1/stats", creatorID).Code)

	w := get(t, h, "/api/v1/stats", operatorID)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Contests)
	assert.Equal(t, int64(1), resp.Participants)
}
