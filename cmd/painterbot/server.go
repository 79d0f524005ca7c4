/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"net/http"

	"github.com/chainguard-dev/terraform-infra-common/pkg/httpmetrics"
	"github.com/gorilla/mux"
)

// newRouter serves webhook deliveries on POST / and liveness on /healthz.
func newRouter(webhooks http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/", httpmetrics.Handler("webhook", webhooks)).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)
	return r
}
