package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bizledger/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveSwagger(cfg config.SwaggerConfig, remoteAddr string) int {
	r := gin.New()
	r.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SwaggerConfig
		remoteAddr string
		want       int
	}{
		{"disabled", config.SwaggerConfig{Enabled: false}, "10.0.0.1:1234", http.StatusNotFound},
		{"open", config.SwaggerConfig{Enabled: true}, "203.0.113.9:1234", http.StatusOK},
		{"listed ip", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "10.0.0.1:1234", http.StatusOK},
		{"unlisted ip", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "10.0.0.2:1234", http.StatusForbidden},
		{"inside cidr", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, "192.168.4.20:80", http.StatusOK},
		{"outside cidr", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, "172.16.0.1:80", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serveSwagger(tt.cfg, tt.remoteAddr))
		})
	}
}

func TestIsIPAllowed(t *testing.T) {
	_, network, _ := net.ParseCIDR("10.1.0.0/24")
	ips := []net.IP{net.ParseIP("127.0.0.1")}
	nets := []*net.IPNet{network}

	assert.True(t, isIPAllowed(net.ParseIP("127.0.0.1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("10.1.0.77"), ips, nets))
	assert.False(t, isIPAllowed(net.ParseIP("10.1.1.1"), ips, nets))
	assert.False(t, isIPAllowed(nil, ips, nets))
}
