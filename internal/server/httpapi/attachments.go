package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/taskvault/taskvault/internal/server/models"
)

type createAttachmentRequest struct {
	FileName string `json:"fileName"`
}

type attachmentResponse struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
}

type attachmentURLResponse struct {
	Attachment attachmentResponse `json:"attachment"`
	URL        string             `json:"url"`
}

func toAttachmentResponse(a *models.Attachment) attachmentResponse {
	return attachmentResponse{
		ID:        a.ID,
		TaskID:    a.TaskID,
		FileName:  a.FileName,
		CreatedAt: a.CreatedAt,
	}
}

// handleAttachmentCreate registers an attachment on an owned task and hands
// back a presigned upload URL; the client PUTs the bytes to object storage
// directly.
func (s *HTTPServer) handleAttachmentCreate(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	taskID, ok := parsePathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "The task ID passed is not valid."})
		return
	}

	var req createAttachmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	if req.FileName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "fileName is required"})
		return
	}

	att, uploadURL, err := s.attachments.Add(r.Context(), userID, taskID, req.FileName)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, attachmentURLResponse{
		Attachment: toAttachmentResponse(att),
		URL:        uploadURL,
	})
}

func (s *HTTPServer) handleAttachmentList(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	taskID, ok := parsePathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "The task ID passed is not valid."})
		return
	}

	atts, err := s.attachments.List(r.Context(), userID, taskID)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}

	out := make([]attachmentResponse, 0, len(atts))
	for _, a := range atts {
		out = append(out, toAttachmentResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAttachmentShow returns a presigned download URL for an owned task's
// attachment.
func (s *HTTPServer) handleAttachmentShow(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	taskID, ok := parsePathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "The task ID passed is not valid."})
		return
	}
	attachmentID, ok := parsePathID(r, "attachmentID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "The attachment ID passed is not valid."})
		return
	}

	att, downloadURL, err := s.attachments.DownloadURL(r.Context(), userID, taskID, attachmentID)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, attachmentURLResponse{
		Attachment: toAttachmentResponse(att),
		URL:        downloadURL,
	})
}
