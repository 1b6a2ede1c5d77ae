package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// PredictionRequest is one observation to price. It arrives either as a
// JSON body or as HTML form fields.
type PredictionRequest struct {
	Category         string `json:"category" validate:"required"`
	Rating           int    `json:"rating" validate:"required,min=1,max=5"`
	Availability     int    `json:"availability" validate:"required,min=1,max=50"`
	DescriptionWords int    `json:"description_words" validate:"min=0,max=1000"`
}

// PredictionResponse carries the model output back to JSON clients.
type PredictionResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
	ModelRunID     string  `json:"model_run_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// indexData feeds the form template.
type indexData struct {
	Categories []string
	Request    *PredictionRequest
	Price      string
	Error      string
	ModelRunID string
}

// handleIndex renders the prediction form.
// GET /
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.renderIndex(w, http.StatusOK, indexData{
		Categories: s.model.Categories(),
		ModelRunID: s.model.RunID,
	})
}

// handlePredict prices one observation. JSON requests get a JSON
// response; form submissions get the form back with the result inlined.
// POST /predict
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	req, err := s.decodeRequest(r, isJSON)
	if err == nil {
		err = s.validate.Struct(req)
	}
	if err != nil {
		s.metrics.IncPrediction("invalid")
		s.respondError(w, r, isJSON, req, validationMessage(err))
		return
	}

	price := s.model.Predict(req.Category, req.Rating, req.Availability, req.DescriptionWords)
	price = math.Round(price*100) / 100

	s.metrics.IncPrediction("ok")
	s.metrics.ObservePrediction(time.Since(start), price)
	slog.Debug("prediction served",
		slog.String("category", req.Category),
		slog.Int("rating", req.Rating),
		slog.Float64("price", price),
	)

	if isJSON {
		s.respondJSON(w, http.StatusOK, PredictionResponse{
			PredictedPrice: price,
			ModelRunID:     s.model.RunID,
		})
		return
	}
	s.renderIndex(w, http.StatusOK, indexData{
		Categories: s.model.Categories(),
		Request:    req,
		Price:      strconv.FormatFloat(price, 'f', 2, 64),
		ModelRunID: s.model.RunID,
	})
}

// handleHealth reports liveness and which model run is loaded.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"model_run_id": s.model.RunID,
	})
}

func (s *Server) decodeRequest(r *http.Request, isJSON bool) (*PredictionRequest, error) {
	req := &PredictionRequest{}
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return req, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Category = r.PostFormValue("category")
	var err error
	if req.Rating, err = formInt(r, "rating"); err != nil {
		return req, err
	}
	if req.Availability, err = formInt(r, "availability"); err != nil {
		return req, err
	}
	if req.DescriptionWords, err = formInt(r, "description_words"); err != nil {
		return req, err
	}
	return req, nil
}

func formInt(r *http.Request, field string) (int, error) {
	value := strings.TrimSpace(r.PostFormValue(field))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, isJSON bool, req *PredictionRequest, message string) {
	slog.Warn("prediction request rejected",
		slog.String("remote", r.RemoteAddr),
		slog.String("reason", message),
	)
	if isJSON {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: message})
		return
	}
	s.renderIndex(w, http.StatusBadRequest, indexData{
		Categories: s.model.Categories(),
		Request:    req,
		Error:      message,
		ModelRunID: s.model.RunID,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", slog.Any("error", err))
	}
}

func (s *Server) renderIndex(w http.ResponseWriter, status int, data indexData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.Error("render template", slog.Any("error", err))
	}
}

// validationMessage flattens a validator error into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request: " + err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "min":
			parts = append(parts, fe.Field()+" must be at least "+fe.Param())
		case "max":
			parts = append(parts, fe.Field()+" must be at most "+fe.Param())
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
