package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/osaleh1i1/threatexchange/pkg/presigner"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
	"github.com/osaleh1i1/threatexchange/pkg/submissions"
)

// SubmitHandler accepts content submissions over HTTP. Storage notifications
// funnel into the same pipeline through the dispatcher.
type SubmitHandler struct {
	recordStore records.Store
	imagesTopic submissions.Notifier
	signer      presigner.RequestPresigner
	imageBucket string
	imagePrefix string
}

func NewSubmitHandler(recordStore records.Store, imagesTopic submissions.Notifier, signer presigner.RequestPresigner, imageBucket string, imagePrefix string) *SubmitHandler {
	return &SubmitHandler{
		recordStore: recordStore,
		imagesTopic: imagesTopic,
		signer:      signer,
		imageBucket: imageBucket,
		imagePrefix: imagePrefix,
	}
}

func (h *SubmitHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.SubmitContent)
	return r
}

type submitResponse struct {
	ContentID        string `json:"content_id"`
	FileUploadURL    string `json:"file_upload_url,omitempty"`
	SubmitSuccessful bool   `json:"submit_successful"`
}

func (h *SubmitHandler) SubmitContent(w http.ResponseWriter, r *http.Request) {
	var body submissions.SubmitContentRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "invalid submission request body")
		return
	}

	switch body.SubmissionType {
	case submissions.SubmissionTypeFromURL:
		err := submissions.SubmitFromURL(r.Context(), body, h.recordStore, h.imagesTopic)
		if errors.Is(err, submissions.ErrInvalidSubmission) {
			writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			internalError(w, r, err)
			return
		}
		render.JSON(w, r, submitResponse{ContentID: body.ContentID, SubmitSuccessful: true})
	case submissions.SubmissionTypeDirectUpload:
		uploadURL, err := submissions.SubmitDirectUpload(r.Context(), body, h.recordStore, h.signer, h.imageBucket, h.imagePrefix)
		if errors.Is(err, submissions.ErrInvalidSubmission) {
			writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			internalError(w, r, err)
			return
		}
		render.JSON(w, r, submitResponse{ContentID: body.ContentID, FileUploadURL: uploadURL, SubmitSuccessful: true})
	default:
		writeMessage(w, r, http.StatusBadRequest, "unsupported submission_type")
	}
}
