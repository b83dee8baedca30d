package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-lms/internal/rbac"
	"github.com/learnloop/learnloop-lms/internal/users"
)

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`               // usually "learner"
	Password string `json:"password,omitempty"` // plaintext, hashed on the way in
}

// POST /admin/users/bulk
// Accepts either multipart file= (CSV or JSON array) or a raw JSON array
// body. Rows without an id get one assigned; new users must carry a
// password, existing users keep their hash when the field is empty.
func BulkUpsertUsersHandler(dir users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			// sniff CSV vs JSON by the first non-space byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			if seeker, ok := f.(io.Seeker); ok {
				_, _ = seeker.Seek(0, io.SeekStart)
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				rs, err := parseUserCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}

		inserted, updated := 0, 0
		for _, row := range rows {
			row.Role = strings.ToLower(strings.TrimSpace(row.Role))
			if row.Role == "" {
				row.Role = "learner"
			}
			if row.Role != "learner" && row.Role != "admin" {
				http.Error(w, "invalid role: "+row.Role, http.StatusBadRequest)
				return
			}
			if strings.TrimSpace(row.Username) == "" {
				http.Error(w, "username required", http.StatusBadRequest)
				return
			}

			existing, err := dir.GetByUsername(r.Context(), row.Username)
			isNew := errors.Is(err, users.ErrNotFound)
			if err != nil && !isNew {
				writeError(w, err)
				return
			}

			u := users.User{
				ID:       row.ID,
				Username: row.Username,
				Name:     row.Name,
				Email:    row.Email,
				Phone:    row.Phone,
				Role:     row.Role,
			}
			if isNew {
				if row.Password == "" {
					http.Error(w, "password required for new user: "+row.Username, http.StatusBadRequest)
					return
				}
				if u.ID == "" {
					u.ID = uuid.NewString()
				}
			} else {
				u.ID = existing.ID
				u.PassHash = existing.PassHash
			}
			if row.Password != "" {
				hash, err := users.HashPassword(row.Password)
				if err != nil {
					writeError(w, err)
					return
				}
				u.PassHash = hash
			}
			if err := dir.Upsert(r.Context(), u); err != nil {
				writeError(w, err)
				return
			}
			if isNew {
				inserted++
			} else {
				updated++
			}
		}
		writeJSON(w, http.StatusOK, map[string]int{"inserted": inserted, "updated": updated})
	}
}

// GET /admin/users?role=
func ListUsersHandler(dir users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := dir.List(r.Context(), r.URL.Query().Get("role"))
		if err != nil {
			writeError(w, err)
			return
		}
		// never ship hashes
		out := make([]users.User, len(list))
		for i, u := range list {
			u.PassHash = ""
			out[i] = u
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /users/me/password {old_password, new_password}
func ChangePasswordHandler(dir users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.NewPassword) < 8 {
			http.Error(w, "new_password must be at least 8 characters", http.StatusBadRequest)
			return
		}
		uid := rbac.SubjectFromContext(r.Context())
		u, err := dir.Get(r.Context(), uid)
		if err != nil {
			writeError(w, err)
			return
		}
		if !users.CheckPassword(u.PassHash, req.OldPassword) {
			http.Error(w, "wrong password", http.StatusForbidden)
			return
		}
		hash, err := users.HashPassword(req.NewPassword)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := dir.SetPassword(r.Context(), uid, hash); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"changed": true})
	}
}

func parseUserCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["username"]; !ok {
		return nil, errors.New("missing column: username")
	}
	cell := func(rec []string, col string) string {
		if i, ok := idx[col]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, userRow{
			ID:       cell(rec, "id"),
			Username: cell(rec, "username"),
			Name:     cell(rec, "name"),
			Email:    cell(rec, "email"),
			Phone:    cell(rec, "phone"),
			Role:     strings.ToLower(cell(rec, "role")),
			Password: cell(rec, "password"),
		})
	}
	return rows, nil
}
