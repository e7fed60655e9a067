package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc_UsesConfiguredProxies(t *testing.T) {
	proxy := NewProxyFunc("http://plain.proxy:8080", "http://secure.proxy:8443", "")

	req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/repos/a/b", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if u == nil || u.Host != "secure.proxy:8443" {
		t.Errorf("expected https proxy, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://ollama.internal:11434/api/chat", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if u == nil || u.Host != "plain.proxy:8080" {
		t.Errorf("expected http proxy, got %v", u)
	}
}

func TestNewProxyFunc_NoProxyBypass(t *testing.T) {
	proxy := NewProxyFunc("http://plain.proxy:8080", "", "ollama.internal")

	req, _ := http.NewRequest(http.MethodGet, "http://ollama.internal:11434/api/chat", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if u != nil {
		t.Errorf("expected direct connection for no_proxy host, got %v", u)
	}
}

func TestNewHTTPClient_HasProxy(t *testing.T) {
	client := NewHTTPClient("http://plain.proxy:8080", "", "")
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport type %T", client.Transport)
	}
	if transport.Proxy == nil {
		t.Error("expected proxy func on transport")
	}
}
