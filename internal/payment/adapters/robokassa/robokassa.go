package robokassa

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/interiohub/interio/internal/config"
	paymentdomain "github.com/interiohub/interio/internal/payment/domain"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://auth.robokassa.ru/Merchant/Index.aspx"

// Gateway implements the Robokassa merchant protocol.
type Gateway struct {
	login     string
	password1 string
	password2 string
	isTest    bool
	baseURL   string
}

func New(cfg config.GatewayConfig) *Gateway {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Gateway{
		login:     strings.TrimSpace(cfg.Login),
		password1: cfg.Password1,
		password2: cfg.Password2,
		isTest:    cfg.IsTest,
		baseURL:   baseURL,
	}
}

func (g *Gateway) CheckoutConfigured() bool {
	return g.login != "" && g.password1 != ""
}

func (g *Gateway) ResultConfigured() bool {
	return g.password2 != ""
}

// CheckoutURL builds the signed redirect link:
// md5("{login}:{outSum}:{invId}:{password1}").
func (g *Gateway) CheckoutURL(invoiceID int64, outSum string, description string) (string, error) {
	if !g.CheckoutConfigured() {
		return "", paymentdomain.ErrGatewayNotConfigured
	}
	inv := strconv.FormatInt(invoiceID, 10)

	params := url.Values{}
	params.Set("MerchantLogin", g.login)
	params.Set("OutSum", outSum)
	params.Set("InvId", inv)
	params.Set("Description", description)
	params.Set("SignatureValue", Sign(g.login, outSum, inv, g.password1))
	if g.isTest {
		params.Set("IsTest", "1")
	}
	return g.baseURL + "?" + params.Encode(), nil
}

// VerifyResult checks md5("{OutSum}:{InvId}:{password2}") against the
// notification signature, ignoring hex case.
func (g *Gateway) VerifyResult(cb paymentdomain.Callback) error {
	if !g.ResultConfigured() {
		return paymentdomain.ErrGatewayNotConfigured
	}
	if cb.OutSum == "" || cb.InvoiceID == "" || cb.Signature == "" {
		return paymentdomain.ErrInvalidPayload
	}
	expected := Sign(cb.OutSum, cb.InvoiceID, g.password2)
	got := strings.ToLower(strings.TrimSpace(cb.Signature))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

// Acknowledge returns the body that stops further redelivery.
func (g *Gateway) Acknowledge(invoiceID string) string {
	return "OK" + invoiceID
}

// Sign joins parts with ':' and returns the lower-case md5 hex digest.
func Sign(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

// FormatAmount renders an amount with two decimals, rounding half away from zero.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
