package utils

import (
	"net/http"
	"time"
)

// HTTPClient is the shared client for outbound calls (profile sync).
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
