package http

import (
	"net/http"
	"strconv"

	"carebook/pkg/config"
	apperrors "carebook/pkg/errors"
)

// ExtractLimitOffset parses pagination query parameters, applying the
// configured defaults and caps.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit, err := queryInt(query.Get("limit"), "limit")
	if err != nil {
		return 0, 0, err
	}

	offset, err := queryInt(query.Get("offset"), "offset")
	if err != nil {
		return 0, 0, err
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(int64(offset)), nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + raw)
	}
	return v, nil
}
