package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/GoDocQA/internal/adapter"
	"github.com/akolanti/GoDocQA/internal/adapter/utils"
	"github.com/akolanti/GoDocQA/internal/api"
	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/rag/ingest"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

type newJobData struct {
	id               string
	sessionId        string
	message          string
	model            string
	traceId          string
	isDocumentIngest bool
	documentName     string
	documentSource   string
}

func (n newJobData) jobType() string {
	if n.isDocumentIngest {
		return "ingest"
	}
	return "query"
}

// GetHandler godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func GetHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// ChatHandler godoc
// @Summary      Ask a question about an ingested document
// @Description  Queues a question against the session's document and returns a job ID to track status.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest      true  "Question, session ID and optional model"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data or unknown session"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request) {
		return
	}
	log := logRH.FromContext(request.Context())

	var requestData api.ChatRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Error("Couldn't close the Chat handler reader", "error", err)
		}
	}(request.Body)

	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || !ValidateChatRequest(request.Context(), requestData) {
		log.Warn("Bad Chat Request", "error", err, "sessionId", requestData.SessionID)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.SessionID, "message and a valid session_id are required")
		return
	}

	queueJob(w, request, newJobData{
		sessionId: requestData.SessionID,
		message:   requestData.Message,
		model:     requestData.Model,
	})
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	logRH.FromContext(r.Context()).Debug("Get Status Request", "URL path", r.URL.Path)

	result, isFound := validateId(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostIngestHandler godoc
// @Summary      Upload a document for ingestion
// @Description  Receives a PDF, DOCX, ODT, RTF or TXT file, queues an ingestion job and returns the session ID the document will belong to.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  false  "Display name of the document, defaults to the file name"
// @Param        document       formData  file    true   "The file to upload"
// @Success      202  {object}  api.InitJobResponse "Accepted"
// @Failure      400  {object}  api.JobResponse "Missing file, unsupported format or file too large"
// @Failure      500  {object}  api.JobResponse "Storage or write error"
// @Router       /ingest [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	log := logRH.FromContext(r.Context())

	targetDir, err := getTargetDirectory()
	if err != nil {
		log.Error("Couldn't get target directory", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Storage error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	baseName := filepath.Base(fileMetadata.Filename)
	if _, err := ingest.DetectFormat(baseName); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, baseName, err.Error())
		return
	}
	docName := r.FormValue("document_name")
	if docName == "" {
		docName = baseName
	}

	tempFilePath := filepath.Join(targetDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), baseName))
	if err := saveUpload(tempFilePath, fileReader); err != nil {
		log.Error("could not store upload", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "Write error")
		return
	}

	queueJob(w, r, newJobData{
		sessionId:        utils.GetNewUUID(),
		isDocumentIngest: true,
		documentName:     docName,
		documentSource:   tempFilePath,
	})
}

// GetHistoryHandler godoc
// @Summary      Get conversation history
// @Tags         History
// @Produce      json
// @Param        session_id  path      string  true  "Session ID"
// @Success      200  {object}  api.HistoryResponse
// @Failure      404  {object}  api.JobResponse "Session not found"
// @Router       /history/{session_id} [get]
func GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	sessionId := utils.GetChiURLParam(r, "session_id")
	if !sessionExists(r.Context(), sessionId) {
		WriteErrorResponse(w, http.StatusNotFound, sessionId, "Session not found")
		return
	}

	turns, err := handlerInstance.service.Rag.History(r.Context(), sessionId)
	if err != nil {
		logRH.FromContext(r.Context()).Error("could not load history", "sessionId", sessionId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, sessionId, "Could not load history")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToHistoryResponse(sessionId, turns))
}

// DeleteHistoryHandler godoc
// @Summary      Clear conversation history
// @Description  Clears the session's history; the document stays loaded.
// @Tags         History
// @Param        session_id  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  api.JobResponse "Session not found"
// @Router       /history/{session_id} [delete]
func DeleteHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	sessionId := utils.GetChiURLParam(r, "session_id")
	if !sessionExists(r.Context(), sessionId) {
		WriteErrorResponse(w, http.StatusNotFound, sessionId, "Session not found")
		return
	}

	if err := handlerInstance.service.Rag.ClearHistory(r.Context(), sessionId); err != nil {
		logRH.FromContext(r.Context()).Error("could not clear history", "sessionId", sessionId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, sessionId, "Could not clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSessionHandler godoc
// @Summary      Close a session
// @Description  Discards the session's document, index and history.
// @Tags         Sessions
// @Param        session_id  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  api.JobResponse "Session not found"
// @Failure      500  {object}  api.JobResponse "Session could not be fully removed"
// @Router       /sessions/{session_id} [delete]
func DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	sessionId := utils.GetChiURLParam(r, "session_id")
	if sessionId == "" {
		WriteErrorResponse(w, http.StatusNotFound, sessionId, "Session not found")
		return
	}

	err := handlerInstance.service.Rag.CloseSession(r.Context(), sessionId)
	switch {
	case errors.Is(err, docErrors.ErrSessionNotFound):
		WriteErrorResponse(w, http.StatusNotFound, sessionId, "Session not found")
	case err != nil:
		logRH.FromContext(r.Context()).Error("could not close session", "sessionId", sessionId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, sessionId, "Could not close session")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}
