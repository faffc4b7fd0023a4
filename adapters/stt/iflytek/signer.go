package iflytek

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/satriahrh/tripvoice/domain"
)

const (
	requestMethod      = "GET"
	requestProtocol    = "HTTP/1.1"
	signatureAlgorithm = "hmac-sha256"
	signedHeaders      = "host date request-line"
)

// signedRequest keeps together every value bound by a single signature.
type signedRequest struct {
	URL           string
	Host          string
	Date          string
	SigningString string
}

// SignURL returns rawURL with the authorization, date and host query
// parameters the recognizer expects on the WebSocket handshake. The
// signature is only valid for a short window around now.
func SignURL(rawURL, apiKey, apiSecret string, now time.Time) (string, error) {
	req, err := sign(rawURL, apiKey, apiSecret, now)
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func sign(rawURL, apiKey, apiSecret string, now time.Time) (signedRequest, error) {
	if strings.TrimSpace(apiKey) == "" {
		return signedRequest{}, &domain.ConfigurationError{Field: "VOICE_API_KEY"}
	}
	if strings.TrimSpace(apiSecret) == "" {
		return signedRequest{}, &domain.ConfigurationError{Field: "VOICE_API_SECRET"}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return signedRequest{}, &domain.ConfigurationError{Field: "VOICE_API_URL", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return signedRequest{}, &domain.ConfigurationError{
			Field: "VOICE_API_URL",
			Err:   errors.New("must be an absolute URL"),
		}
	}
	if u.Path == "" {
		u.Path = "/"
	}

	// The same date string goes into the signature and the query.
	date := now.UTC().Format(http.TimeFormat)

	requestURI := u.EscapedPath()
	if u.RawQuery != "" {
		requestURI += "?" + u.RawQuery
	}
	signingString := strings.Join([]string{
		"host: " + u.Host,
		"date: " + date,
		requestMethod + " " + requestURI + " " + requestProtocol,
	}, "\n")

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(signingString))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authorizationOrigin := fmt.Sprintf(`api_key="%s", algorithm="%s", headers="%s", signature="%s"`,
		apiKey, signatureAlgorithm, signedHeaders, signature)

	params := url.Values{}
	params.Set("authorization", base64.StdEncoding.EncodeToString([]byte(authorizationOrigin)))
	params.Set("date", date)
	params.Set("host", u.Host)

	signed := *u
	signed.Fragment = ""
	if u.RawQuery != "" {
		signed.RawQuery = u.RawQuery + "&" + params.Encode()
	} else {
		signed.RawQuery = params.Encode()
	}

	return signedRequest{
		URL:           signed.String(),
		Host:          u.Host,
		Date:          date,
		SigningString: signingString,
	}, nil
}
