package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"medai-backend/internal/intake"
	"medai-backend/internal/presenter"
	"medai-backend/internal/session"
	"medai-backend/pkg/api"
)

const (
	uploadField = "file"
	// Room for multipart boundaries and headers on top of the file limit.
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

func (s *BackendService) session(r *http.Request) (*session.Session, error) {
	id, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(id, userFromContext(r.Context()).Username)
	if err != nil {
		return nil, sessionError(err)
	}
	return sess, nil
}

func (s *BackendService) view(sess *session.Session) api.Session {
	return convertView(presenter.Present(sess.Snapshot()))
}

func (s *BackendService) CreateSession(r *http.Request) (any, error) {
	user := userFromContext(r.Context())
	sess := s.sessions.Create(user.Username)
	slog.Info("session created", "session_id", sess.Id, "owner", user.Username)
	return api.CreateSessionResponse{Id: sess.Id}, nil
}

func (s *BackendService) GetSession(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *BackendService) DeleteSession(r *http.Request) (any, error) {
	id, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Delete(id, userFromContext(r.Context()).Username); err != nil {
		return nil, sessionError(err)
	}
	return nil, nil
}

func uploadedFile(fh *multipart.FileHeader) intake.File {
	return intake.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

func (s *BackendService) Upload(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	limit := s.maxUploadBytes + multipartOverhead
	if r.ContentLength > limit {
		return nil, s.rejectOversize(sess, r.ContentLength)
	}

	r.Body = http.MaxBytesReader(nil, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, s.rejectOversize(sess, maxErr.Limit+1)
		}
		slog.Error("error parsing multipart upload", "error", err)
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart upload")
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("error removing multipart temp files", "error", err)
		}
	}()

	headers := r.MultipartForm.File[uploadField]
	files := make([]intake.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadedFile(fh))
	}

	if _, err := sess.Upload(files); err != nil {
		return nil, sessionError(err)
	}

	return s.view(sess), nil
}

func (s *BackendService) SelectModel(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SelectModelRequest](r)
	if err != nil {
		return nil, err
	}

	if err := sess.SelectModel(req.ModelId); err != nil {
		return nil, sessionError(err)
	}

	return s.view(sess), nil
}

func (s *BackendService) Classify(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	// A caller that goes away does not abort inference; only a newer request
	// supersedes it. The client timeout still bounds the call.
	if _, err := sess.Classify(context.WithoutCancel(r.Context())); err != nil {
		return nil, sessionError(err)
	}

	return s.view(sess), nil
}

func (s *BackendService) Explain(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	if _, err := sess.Explain(context.WithoutCancel(r.Context())); err != nil {
		return nil, sessionError(err)
	}

	return s.view(sess), nil
}

func (s *BackendService) GetPreview(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	asset := sess.Snapshot().Asset
	if asset == nil {
		return nil, CodedErrorf(http.StatusNotFound, "no image uploaded")
	}
	if asset.Preview == nil {
		return nil, CodedErrorf(http.StatusNotFound, "no preview available for %s", asset.MediaType)
	}

	uri, ready, err := asset.Preview.Ready()
	switch {
	case !ready:
		return WithStatus(http.StatusAccepted, api.Preview{State: string(presenter.PreviewPending)}), nil
	case err != nil:
		slog.Warn("preview could not be generated", "asset_id", asset.Id, "error", err)
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "preview could not be generated")
	default:
		return api.Preview{State: string(presenter.PreviewReady), Image: uri}, nil
	}
}

// rejectOversize runs an upload whose body was never read through intake so
// the session records the same rejection as for any other oversized file.
func (s *BackendService) rejectOversize(sess *session.Session, size int64) error {
	_, err := sess.Upload([]intake.File{{Name: "upload", Size: size}})
	return sessionError(err)
}
