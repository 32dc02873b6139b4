// Copyright (c) 2017-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// NewHTTPClient returns a new http Client. The certificate pool is only
// replaced when a cert path is provided.
func NewHTTPClient(skipVerify bool, certPath string) (*http.Client, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: skipVerify,
	}

	if !skipVerify && certPath != "" {
		cert, err := os.ReadFile(certPath)
		if err != nil {
			return nil, err
		}
		certPool, err := x509.SystemCertPool()
		if err != nil {
			certPool = x509.NewCertPool()
		}
		if !certPool.AppendCertsFromPEM(cert) {
			return nil, fmt.Errorf("unable to load cert %v", certPath)
		}
		tlsConfig.RootCAs = certPool
	}

	return &http.Client{
		Transport: &http.Transport{
			IdleConnTimeout:       60 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			TLSClientConfig:       tlsConfig,
		},
	}, nil
}

// RespBody reads the http response body and returns it. Closing the body is
// left to the caller.
func RespBody(r *http.Response) []byte {
	var b bytes.Buffer
	io.Copy(&b, r.Body)
	return b.Bytes()
}
