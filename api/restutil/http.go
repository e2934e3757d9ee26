// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package restutil

import (
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	pkgerrors "github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/reverts"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError creates an error with http status code.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

func BadRequest(cause error) error {
	return HTTPError(cause, http.StatusBadRequest)
}

func Forbidden(cause error) error {
	return HTTPError(cause, http.StatusForbidden)
}

func NotFound(cause error) error {
	return HTTPError(cause, http.StatusNotFound)
}

// LedgerError maps a ledger error to a response: unknown ids are not found, other
// reverts are bad requests, anything else is left as an internal error.
func LedgerError(err error) error {
	switch {
	case errors.Is(err, reverts.ErrInvalidTokenID):
		return NotFound(err)
	case reverts.IsRevertErr(err):
		return BadRequest(err)
	default:
		return err
	}
}

// HandlerFunc like http.HandlerFunc, but it returns an error.
// If the returned error is httpError type, httpError.status will be responded,
// otherwise http.StatusInternalServerError responded.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc converts HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		if errors.As(err, &he) {
			if he.cause != nil {
				http.Error(w, he.cause.Error(), he.status)
			} else {
				w.WriteHeader(he.status)
			}
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const JSONContentType = "application/json; charset=utf-8"

// ParseJSON parses a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON responds an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// ParseUint parses a decimal path or query value, named by name in errors.
func ParseUint(name, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, BadRequest(pkgerrors.WithMessage(err, name))
	}
	return n, nil
}

// ParseTime parses the optional "at" query value, falling back to def.
func ParseTime(r *http.Request, def uint64) (uint64, error) {
	s := r.URL.Query().Get("at")
	if s == "" {
		return def, nil
	}
	return ParseUint("at", s)
}

// Amount converts a big integer for JSON output.
func Amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}
