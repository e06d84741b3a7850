package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Availability *AvailabilityHandler
	Meetups      *MeetupHandler
	Slots        *SlotHandler
	Reconcile    *ReconcileHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Meetups != nil {
		mux.HandleFunc("/meetups", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Meetups.List(w, r)
			case http.MethodPost:
				cfg.Meetups.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/meetups/", func(w http.ResponseWriter, r *http.Request) {
			id, action := splitResourcePath(strings.TrimPrefix(r.URL.Path, "/meetups/"))
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithMeetupID(r.Context(), id))
			switch action {
			case "confirm":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Meetups.Confirm(w, r)
			case "refuse":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Meetups.Refuse(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	mux.HandleFunc("/mentors/", func(w http.ResponseWriter, r *http.Request) {
		id, action := splitResourcePath(strings.TrimPrefix(r.URL.Path, "/mentors/"))
		if id == "" {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithMentorID(r.Context(), id))
		switch action {
		case "availability":
			if cfg.Availability == nil {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Availability.Get(w, r)
		case "slots":
			if cfg.Slots == nil {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Slots.Apply(w, r)
		case "reconcile":
			if cfg.Reconcile == nil {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Reconcile.Trigger(w, r)
		default:
			http.NotFound(w, r)
		}
	})

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// splitResourcePath separates "{id}/{action}" into its two segments. Paths
// with extra segments yield an empty action so routing falls through to 404.
func splitResourcePath(path string) (id, action string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], ""
	case 2:
		return parts[0], parts[1]
	default:
		return "", ""
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
