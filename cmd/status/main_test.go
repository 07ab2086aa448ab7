package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func request(method string) events.APIGatewayV2HTTPRequest {
	var req events.APIGatewayV2HTTPRequest
	req.RawPath = "/cooldown"
	req.RequestContext.HTTP.Method = method
	return req
}

func TestHandlerWithoutDB(t *testing.T) {
	db = nil
	res, err := handler(context.Background(), request("GET"))
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 503 {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil || body["error"] == "" {
		t.Fatalf("body = %q (%v)", res.Body, err)
	}
}

func TestHandlerRejectsWrites(t *testing.T) {
	res, _ := handler(context.Background(), request("POST"))
	if res.StatusCode != 405 {
		t.Fatalf("status = %d", res.StatusCode)
	}
}
