package httpapp

import "net/http"

// fieldErrors accumulates per-field validation failures and renders them
// as {"errors": {"field": ["reason", ...]}}.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, reason string) {
	f[field] = append(f[field], reason)
}

func (f fieldErrors) empty() bool {
	return len(f) == 0
}

func writeValidationErrors(w http.ResponseWriter, errs fieldErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
}

func validateRegistration(username, email, password string) fieldErrors {
	errs := fieldErrors{}
	if len(username) < 4 {
		errs.add("username", "must be at least 4 characters")
	}
	if email == "" {
		errs.add("email", "can't be blank")
	}
	if len(password) < 6 {
		errs.add("password", "must be at least 6 characters")
	}
	return errs
}

// validateUserPatch checks only the fields the patch carries. Absent
// fields keep their stored values untouched.
func validateUserPatch(username, email, password *string) fieldErrors {
	errs := fieldErrors{}
	if username != nil && len(*username) < 4 {
		errs.add("username", "must be at least 4 characters")
	}
	if email != nil && *email == "" {
		errs.add("email", "can't be blank")
	}
	if password != nil && len(*password) < 6 {
		errs.add("password", "must be at least 6 characters")
	}
	return errs
}
