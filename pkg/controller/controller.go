/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"crypto/sha256"
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	goji "goji.io"
	"goji.io/pat"

	"github.com/caduceus-vc/caduceus/pkg/framework"
)

const (
	APIKeyHeaderName = "X-API-Key"
	WebhookPath      = "/webhooks/topic/:topic"
)

// Routes is implemented by the role servers.
type Routes interface {
	WebhookHandler() http.Handler
	RegisterRoutes(mux *goji.Mux)
}

type Runner struct {
	routes   Routes
	addr     string
	apiToken string
}

type provider interface {
	GetAPIEndpoint() (*framework.Endpoint, error)
}

func New(ctx provider, routes Routes) (*Runner, error) {
	ep, err := ctx.GetAPIEndpoint()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create controller")
	}

	r := &Runner{
		routes:   routes,
		addr:     ep.Address(),
		apiToken: ep.Token,
	}

	return r, nil
}

// Handler mounts the agent webhook route outside the API key check and every
// operator route behind it.
func (r *Runner) Handler() http.Handler {
	root := goji.NewMux()
	root.Handle(pat.Post(WebhookPath), r.routes.WebhookHandler())

	ops := goji.SubMux()
	ops.Use(CorsHandler())
	if r.apiToken != "" {
		ops.Use(r.tokenAuth)
	}
	r.routes.RegisterRoutes(ops)

	root.Handle(pat.New("/*"), ops)
	return root
}

func (r *Runner) Launch() error {
	if r.apiToken == "" {
		log.Println("api.token is not set, operator routes are unauthenticated")
	}

	log.Printf("API listening on %s\n", r.addr)
	return http.ListenAndServe(r.addr, r.Handler())
}

func (r *Runner) tokenAuth(h http.Handler) http.Handler {
	return r.basicTokenAuth(h)
}

func (r *Runner) basicTokenAuth(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		authHeader := req.Header.Get(APIKeyHeaderName)
		if authHeader == "" {
			http.Error(w, "Not authorized", http.StatusUnauthorized)
			return
		}

		givenToken := sha256.Sum256([]byte(authHeader))
		requiredToken := sha256.Sum256([]byte(r.apiToken))

		if subtle.ConstantTimeCompare(givenToken[:], requiredToken[:]) != 1 {
			http.Error(w, "Not authorized", http.StatusUnauthorized)
			return
		}

		h.ServeHTTP(w, req)
	}
}

func CorsHandler() func(h http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "PATCH", "POST", "DELETE"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Authentication", "Authorization", "Accept",
			"If-Modified-Since", "Cache-Control", "Pragma", APIKeyHeaderName},
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "Cache-Control", "Last-Modified"},
		AllowCredentials: true,
	})
	return c.Handler
}
