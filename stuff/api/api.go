package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode"

	"github.com/andrebq/mindgate/internal/logutil"
	"github.com/andrebq/mindgate/stuff"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

const (
	maxRequestBody = 1 << 20
	maxPageSize    = 100
	latestTags     = 20
)

type (
	request struct {
		Query  *queryRequest `json:"query"`
		Add    *addRequest   `json:"add"`
		Tick   *idRequest    `json:"tick"`
		Untick *idRequest    `json:"untick"`
		Forget *idRequest    `json:"forget"`
	}

	queryRequest struct {
		Tag   string `json:"tag"`
		State string `json:"state"`
		Page  int    `json:"page"`
		Num   int    `json:"num"`
		Order string `json:"order"`
	}

	addRequest struct {
		Body string `json:"body"`
	}

	idRequest struct {
		ID int64 `json:"id"`
	}

	item struct {
		ID    int64    `json:"id"`
		Body  string   `json:"body"`
		State string   `json:"state"`
		Tags  []string `json:"tags,omitempty"`
	}

	queryResponse struct {
		Items []item `json:"items"`
		Page  int    `json:"page"`
		More  bool   `json:"more"`
	}

	badRequest struct {
		msg string
	}
)

func (b badRequest) Error() string { return b.msg }

// AsHandler exposes st over http, when assets is not empty any
// unknown path is served from that directory
func AsHandler(ctx context.Context, st *stuff.Store, assets string) (http.Handler, error) {
	router := httprouter.New()
	router.HandlerFunc("POST", "/api/stuff", handleStuff(ctx, st))
	router.HandlerFunc("GET", "/api/stuff", listStuff(ctx, st))
	router.HandlerFunc("GET", "/api/stuff/:id", getStuff(ctx, st))
	router.HandlerFunc("GET", "/api/tags", listTags(ctx, st))
	if assets != "" {
		router.NotFound = http.FileServer(http.Dir(assets))
	}
	return router, nil
}

func handleStuff(ctx context.Context, st *stuff.Store) http.HandlerFunc {
	log := logutil.GetOrDefault(ctx).Sample(zerolog.Often)
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req)
		if err != nil {
			http.Error(w, "invalid json request", http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		var out interface{}
		switch {
		case req.Query != nil:
			out, err = runQuery(ctx, st, *req.Query)
		case req.Add != nil:
			var rec stuff.Record
			var tags []string
			rec, tags, err = st.Add(ctx, req.Add.Body)
			out = toItem(rec, tags)
		case req.Tick != nil:
			out, err = changeState(ctx, st.Tick, req.Tick.ID, stuff.Ticked)
		case req.Untick != nil:
			out, err = changeState(ctx, st.Untick, req.Untick.ID, stuff.Active)
		case req.Forget != nil:
			out, err = changeState(ctx, st.Forget, req.Forget.ID, stuff.Forgotten)
		default:
			err = badRequest{"request must have one of query, add, tick, untick or forget"}
		}
		if err != nil {
			log.Warn().Err(err).Msg("unable to handle stuff request")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listStuff is the read-only form of the query operation, it is the
// only one a gate forwards since writes arrive as POST
func listStuff(ctx context.Context, st *stuff.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		req := queryRequest{
			Tag:   qs.Get("tag"),
			State: qs.Get("state"),
			Order: qs.Get("order"),
		}
		var err error
		if v := qs.Get("page"); v != "" {
			if req.Page, err = strconv.Atoi(v); err != nil {
				http.Error(w, "invalid page", http.StatusBadRequest)
				return
			}
		}
		if v := qs.Get("num"); v != "" {
			if req.Num, err = strconv.Atoi(v); err != nil {
				http.Error(w, "invalid num", http.StatusBadRequest)
				return
			}
		}
		res, err := runQuery(r.Context(), st, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func getStuff(ctx context.Context, st *stuff.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(httprouter.ParamsFromContext(r.Context()).ByName("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		rec, tags, err := st.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItem(rec, tags))
	}
}

func listTags(ctx context.Context, st *stuff.Store) http.HandlerFunc {
	log := logutil.GetOrDefault(ctx)
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := st.LatestTags(r.Context(), latestTags)
		if err != nil {
			log.Error().Err(err).Msg("unable to list tags")
			writeError(w, err)
			return
		}
		if tags == nil {
			tags = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
	}
}

func runQuery(ctx context.Context, st *stuff.Store, req queryRequest) (queryResponse, error) {
	if !validTag(req.Tag) {
		return queryResponse{}, badRequest{"tags must be alphanumeric"}
	}
	state := stuff.Active
	if req.State != "" {
		var err error
		state, err = stuff.ParseState(req.State)
		if err != nil {
			return queryResponse{}, badRequest{err.Error()}
		}
	}
	num := req.Num
	if num <= 0 {
		num = stuff.PageSize
	} else if num > maxPageSize {
		num = maxPageSize
	}
	if req.Page < 0 {
		req.Page = 0
	}
	var oldest bool
	switch req.Order {
	case "", "latest":
	case "oldest":
		oldest = true
	default:
		return queryResponse{}, badRequest{"order must be latest or oldest"}
	}
	records, err := st.Query(ctx, stuff.Query{
		Tag:    req.Tag,
		State:  state,
		Oldest: oldest,
		Offset: req.Page * num,
		Limit:  num + 1,
	})
	if err != nil {
		return queryResponse{}, err
	}
	res := queryResponse{Page: req.Page, Items: []item{}}
	if len(records) > num {
		res.More = true
		records = records[:num]
	}
	for _, r := range records {
		res.Items = append(res.Items, toItem(r, nil))
	}
	return res, nil
}

func changeState(ctx context.Context, fn func(context.Context, int64) error, id int64, to stuff.State) (item, error) {
	if err := fn(ctx, id); err != nil {
		return item{}, err
	}
	return item{ID: id, State: to.String()}, nil
}

func validTag(tag string) bool {
	for _, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func toItem(r stuff.Record, tags []string) item {
	return item{ID: r.ID, Body: r.Body, State: r.State.String(), Tags: tags}
}

func writeError(w http.ResponseWriter, err error) {
	var notFound stuff.NotFound
	var bad badRequest
	switch {
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &bad), errors.Is(err, stuff.EmptyBody{}):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, stuff.ReadOnly{}):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, "unable to process request, check logs for more information", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	buf, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.Header().Add("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(status)
	w.Write(buf)
}
