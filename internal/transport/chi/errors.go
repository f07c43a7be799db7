package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
// logger is the request-scoped logger.
type errorHandler func(logger *zap.Logger, w http.ResponseWriter, err error) bool

// defaultErrorHandlers maps sentinels to status codes, most specific first.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		corruptRecordHandler,
		clientErrorHandler(domain.ErrInvalidMode, CodeInvalidMode),
		clientErrorHandler(domain.ErrInvalidRequest, CodeValidationFailed),
		clientErrorHandler(domain.ErrMissingField, CodeValidationFailed),
		clientErrorHandler(domain.ErrInvalidProduct, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		dimensionMismatchHandler,
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrEmbedderUnavailable, http.StatusServiceUnavailable, CodeEmbedderUnavailable),
	}
}

// clientErrorHandler answers 400 with the full message; it describes the caller's own input.
func clientErrorHandler(sentinel error, code ErrorCode) errorHandler {
	return func(_ *zap.Logger, w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return true
	}
}

// sentinelHandler answers with the sentinel text only, without exposing internals.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(_ *zap.Logger, w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// dimensionMismatchHandler reports a catalog integrity failure.
func dimensionMismatchHandler(logger *zap.Logger, w http.ResponseWriter, err error) bool {
	var dm *domain.DimensionMismatchError
	if !errors.As(err, &dm) {
		return false
	}
	logger.Error("catalog embedding dimension mismatch",
		zap.String("product_id", dm.ProductID),
		zap.Int("expected", dm.Expected),
		zap.Int("actual", dm.Actual),
	)
	writeError(w, http.StatusInternalServerError, CodeDimensionMismatch, domain.ErrDimensionMismatch.Error())
	return true
}

// corruptRecordHandler reports a stored product that failed to decode.
// Must precede the client handlers: the wrapped cause may be a MissingFieldError.
func corruptRecordHandler(logger *zap.Logger, w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrCorruptRecord) {
		return false
	}
	logger.Error("corrupt catalog record", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeCorruptRecord, domain.ErrCorruptRecord.Error())
	return true
}

// handleDomainError logs through the request logger placed in r's context,
// falling back to the server logger.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(logger, w, err) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
