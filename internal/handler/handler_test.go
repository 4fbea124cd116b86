package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"onlinebank/internal/config"
	"onlinebank/internal/infrastructure/database"
	"onlinebank/internal/infrastructure/lock"
	"onlinebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "bank.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return SetupRouter(db, lock.NewLocalLocker(), config.Default())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, *envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %s", w.Body.String())
	}
	return w.Code, &resp
}

// registerUser 注册用户并返回令牌
func registerUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/users", "", gin.H{
		"first_name": "伟",
		"last_name":  "王",
		"email":      email,
		"password":   "secret-pass-1",
	})
	if status != http.StatusCreated {
		t.Fatalf("注册返回 %d: %s", status, resp.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	return data.Token
}

// openAccount 开立账户并返回账户 ID
func openAccount(t *testing.T, r *gin.Engine, token string) int64 {
	t.Helper()
	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/account", token, nil)
	if status != http.StatusCreated {
		t.Fatalf("开户返回 %d: %s", status, resp.Message)
	}
	var account struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &account); err != nil {
		t.Fatal(err)
	}
	return account.ID
}

func accountBalance(t *testing.T, r *gin.Engine, token string, accountID int64) decimal.Decimal {
	t.Helper()
	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/account", token, nil)
	if status != http.StatusOK {
		t.Fatalf("查询账户返回 %d: %s", status, resp.Message)
	}
	var accounts []struct {
		ID      int64           `json:"id"`
		Balance decimal.Decimal `json:"balance"`
	}
	if err := json.Unmarshal(resp.Data, &accounts); err != nil {
		t.Fatal(err)
	}
	for _, a := range accounts {
		if a.ID == accountID {
			return a.Balance
		}
	}
	t.Fatalf("账户 %d 不在列表中", accountID)
	return decimal.Zero
}

func TestFullLedgerFlow(t *testing.T) {
	r := newTestRouter(t)

	tokenA := registerUser(t, r, "wang@example.com")
	tokenB := registerUser(t, r, "li@example.com")
	accountA := openAccount(t, r, tokenA)
	accountB := openAccount(t, r, tokenB)

	// 存款 100
	status, _ := doJSON(t, r, http.MethodPost, "/api/v1/action", tokenA, gin.H{
		"account": accountA, "amount": 100,
	})
	if status != http.StatusCreated {
		t.Fatalf("存款返回 %d", status)
	}

	// 取款 30
	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/action", tokenA, gin.H{
		"account": accountA, "amount": -30,
	})
	if status != http.StatusCreated {
		t.Fatalf("取款返回 %d", status)
	}

	// 商户消费 20
	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/transaction", tokenA, gin.H{
		"account": accountA, "amount": 20, "merchant": "Acme",
	})
	if status != http.StatusCreated {
		t.Fatalf("消费返回 %d", status)
	}

	// 转账 10 给 B
	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/transfer", tokenA, gin.H{
		"from_account": accountA, "to_account": accountB, "amount": 10,
	})
	if status != http.StatusCreated {
		t.Fatalf("转账返回 %d", status)
	}

	if got := accountBalance(t, r, tokenA, accountA); !got.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("A 余额=%s 期望=40", got)
	}
	if got := accountBalance(t, r, tokenB, accountB); !got.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("B 余额=%s 期望=10", got)
	}

	// 流水列表只包含本人账户的记录
	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/action", tokenB, nil)
	if status != http.StatusOK {
		t.Fatalf("查询流水返回 %d", status)
	}
	var actions []json.RawMessage
	if err := json.Unmarshal(resp.Data, &actions); err != nil {
		t.Fatal(err)
	}
	if len(actions) != 0 {
		t.Fatalf("B 的存取款流水条数=%d 期望=0", len(actions))
	}
}

func TestLedgerErrorMapping(t *testing.T) {
	r := newTestRouter(t)
	token := registerUser(t, r, "wang@example.com")
	accountID := openAccount(t, r, token)

	doJSON(t, r, http.MethodPost, "/api/v1/action", token, gin.H{"account": accountID, "amount": 50})

	cases := []struct {
		name       string
		path       string
		body       gin.H
		wantStatus int
		wantCode   int
	}{
		{
			name:       "余额不足",
			path:       "/api/v1/transaction",
			body:       gin.H{"account": accountID, "amount": 75, "merchant": "Acme"},
			wantStatus: 400,
			wantCode:   response.CodeInsufficientFunds,
		},
		{
			name:       "同账户转账",
			path:       "/api/v1/transfer",
			body:       gin.H{"from_account": accountID, "to_account": accountID, "amount": 10},
			wantStatus: 400,
			wantCode:   response.CodeInvalidTransfer,
		},
		{
			name:       "金额精度非法",
			path:       "/api/v1/action",
			body:       gin.H{"account": accountID, "amount": "10.123"},
			wantStatus: 400,
			wantCode:   response.CodeValidationFailed,
		},
		{
			name:       "账户不存在",
			path:       "/api/v1/action",
			body:       gin.H{"account": 9999, "amount": 10},
			wantStatus: 404,
			wantCode:   response.CodeAccountNotFound,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, resp := doJSON(t, r, http.MethodPost, c.path, token, c.body)
			if status != c.wantStatus || resp.Code != c.wantCode {
				t.Fatalf("返回 status=%d code=%d 期望 status=%d code=%d",
					status, resp.Code, c.wantStatus, c.wantCode)
			}
		})
	}

	// 错误请求后余额保持不变
	if got := accountBalance(t, r, token, accountID); !got.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("余额=%s 期望=50", got)
	}
}

// 账户查询按归属收敛：他人账户与不存在的账户同样返回 404
func TestGetAccountOwnership(t *testing.T) {
	r := newTestRouter(t)
	tokenA := registerUser(t, r, "wang@example.com")
	tokenB := registerUser(t, r, "li@example.com")
	accountA := openAccount(t, r, tokenA)

	status, _ := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/account/%d", accountA), tokenA, nil)
	if status != http.StatusOK {
		t.Fatalf("本人查询返回 %d", status)
	}

	status, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/account/%d", accountA), tokenB, nil)
	if status != http.StatusNotFound || resp.Code != response.CodeAccountNotFound {
		t.Fatalf("他人查询返回 status=%d code=%d 期望 404", status, resp.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(t)

	// 未带令牌
	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/account", "", nil)
	if status != http.StatusUnauthorized || resp.Code != response.CodeUnauthorized {
		t.Fatalf("返回 status=%d code=%d 期望 401", status, resp.Code)
	}

	// 无效令牌
	status, _ = doJSON(t, r, http.MethodGet, "/api/v1/account", "not-a-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("无效令牌返回 %d 期望 401", status)
	}
}

func TestAuthLogin(t *testing.T) {
	r := newTestRouter(t)
	registerUser(t, r, "wang@example.com")

	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth", "", gin.H{
		"email": "wang@example.com", "password": "secret-pass-1",
	})
	if status != http.StatusOK {
		t.Fatalf("登录返回 %d: %s", status, resp.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Token == "" {
		t.Fatal("登录必须返回令牌")
	}

	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/auth", "", gin.H{
		"email": "wang@example.com", "password": "wrong-pass",
	})
	if status != http.StatusBadRequest || resp.Code != response.CodeBadCredentials {
		t.Fatalf("密码错误返回 status=%d code=%d", status, resp.Code)
	}
}

func TestDeactivateOnlySelf(t *testing.T) {
	r := newTestRouter(t)
	tokenA := registerUser(t, r, "wang@example.com")
	registerUser(t, r, "li@example.com")

	// A 的用户 ID 为 1、B 为 2（自增主键）
	status, _ := doJSON(t, r, http.MethodDelete, "/api/v1/users/2", tokenA, nil)
	if status != http.StatusForbidden {
		t.Fatalf("注销他人返回 %d 期望 403", status)
	}

	status, _ = doJSON(t, r, http.MethodDelete, "/api/v1/users/1", tokenA, nil)
	if status != http.StatusOK {
		t.Fatalf("注销本人返回 %d 期望 200", status)
	}

	// 注销后令牌随即失效
	status, _ = doJSON(t, r, http.MethodGet, "/api/v1/account", tokenA, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("注销后请求返回 %d 期望 401", status)
	}
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("健康检查返回 %d", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(t)

	cases := []gin.H{
		{"first_name": "伟", "email": "bad-email", "password": "secret-pass-1"},
		{"first_name": "伟", "email": "wang@example.com", "password": "short"},
		{"email": "wang@example.com", "password": "secret-pass-1"},
	}
	for i, body := range cases {
		status, _ := doJSON(t, r, http.MethodPost, "/api/v1/users", "", body)
		if status != http.StatusBadRequest {
			t.Fatalf("用例 %d 返回 %d 期望 400", i, status)
		}
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	r := newTestRouter(t)
	registerUser(t, r, "wang@example.com")

	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/users", "", gin.H{
		"first_name": "强",
		"email":      "wang@example.com",
		"password":   "another-pass",
	})
	if status != http.StatusBadRequest || resp.Code != response.CodeEmailDuplicate {
		t.Fatalf("重复邮箱返回 status=%d code=%d", status, resp.Code)
	}
}

func TestGetUserProfile(t *testing.T) {
	r := newTestRouter(t)
	token := registerUser(t, r, "wang@example.com")

	status, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", 1), token, nil)
	if status != http.StatusOK {
		t.Fatalf("查询用户返回 %d", status)
	}
	var user map[string]interface{}
	if err := json.Unmarshal(resp.Data, &user); err != nil {
		t.Fatal(err)
	}
	if user["email"] != "wang@example.com" {
		t.Fatalf("邮箱=%v", user["email"])
	}
	// 密码哈希不得出现在响应里
	if _, ok := user["password"]; ok {
		t.Fatal("响应不得包含密码字段")
	}
}
