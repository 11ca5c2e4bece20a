package handlers

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"enrollment-portal/http/response"
	"enrollment-portal/logger"
	"enrollment-portal/models"
	"enrollment-portal/normalizer"
	"enrollment-portal/services"
	"enrollment-portal/utils"
)

// classLookups bounds concurrent class fetches for one request.
const classLookups = 4

func sendEnrollments(w http.ResponseWriter, list []models.EnrollmentRecord) {
	views := normalizer.Views(list)
	response.SuccessResponse(w, http.StatusOK, "Enrollments retrieved", map[string]interface{}{
		"count": len(views),
		"data":  views,
	})
}

// ListEnrollments GET /api/enrollments
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	list, err := h.backend.ListEnrollments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendEnrollments(w, list)
}

// enrollmentsBy serves the /api/enrollments/{scope}/{id} lookups.
func (h *Handler) enrollmentsBy(fetch func(context.Context, int64) ([]models.EnrollmentRecord, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.PathID(r, "id")
		if err != nil {
			response.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		list, err := fetch(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		sendEnrollments(w, list)
	}
}

// EnrollmentsByStudent GET /api/enrollments/student/{id}
func (h *Handler) EnrollmentsByStudent(w http.ResponseWriter, r *http.Request) {
	h.enrollmentsBy(h.backend.EnrollmentsByStudent)(w, r)
}

// EnrollmentsByClass GET /api/enrollments/class/{id}
func (h *Handler) EnrollmentsByClass(w http.ResponseWriter, r *http.Request) {
	h.enrollmentsBy(h.backend.EnrollmentsByClass)(w, r)
}

// EnrollmentsByPayment GET /api/enrollments/payment/{id}
func (h *Handler) EnrollmentsByPayment(w http.ResponseWriter, r *http.Request) {
	h.enrollmentsBy(h.backend.EnrollmentsByPayment)(w, r)
}

// MyEnrollments returns a student's enrollments with class details filled in.
// A class that cannot be fetched leaves its enrollments as the backend sent
// them.
// GET /api/my-enrollments/{studentId}
func (h *Handler) MyEnrollments(w http.ResponseWriter, r *http.Request) {
	studentID, err := utils.PathID(r, "studentId")
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.backend.EnrollmentsByStudent(r.Context(), studentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	classes := h.fetchClasses(r.Context(), list)
	if r.Context().Err() != nil {
		return
	}
	for i, e := range list {
		if c, ok := classes[e.ClassID]; ok {
			list[i] = normalizer.Enrich(e, c)
		}
	}
	sendEnrollments(w, list)
}

func (h *Handler) fetchClasses(ctx context.Context, list []models.EnrollmentRecord) map[int64]models.ClassRecord {
	var ids []int64
	seen := make(map[int64]bool)
	for _, e := range list {
		if e.ClassID > 0 && !seen[e.ClassID] {
			seen[e.ClassID] = true
			ids = append(ids, e.ClassID)
		}
	}

	// lookups never fail the group; a missing class leaves its row unenriched
	found := make([]*models.ClassRecord, len(ids))
	var g errgroup.Group
	g.SetLimit(classLookups)
	for i, id := range ids {
		g.Go(func() error {
			c, err := h.backend.GetClass(ctx, id)
			if err != nil {
				logger.Debug("[ENROLLMENT] class %d unavailable, showing enrollment as-is: %v", id, err)
				return nil
			}
			found[i] = &c
			return nil
		})
	}
	g.Wait()

	out := make(map[int64]models.ClassRecord, len(ids))
	for i, c := range found {
		if c != nil {
			out[ids[i]] = *c
		}
	}
	return out
}

// ExportEnrollments downloads enrollments as xlsx, optionally for one class.
// GET /api/admin/enrollments/export?classId=
func (h *Handler) ExportEnrollments(w http.ResponseWriter, r *http.Request) {
	classID, err := utils.QueryInt64(r, "classId")
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var list []models.EnrollmentRecord
	fileName := "enrollments.xlsx"
	if classID != nil {
		list, err = h.backend.EnrollmentsByClass(r.Context(), *classID)
		fileName = fmt.Sprintf("enrollments_class_%d.xlsx", *classID)
	} else {
		list, err = h.backend.ListEnrollments(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := services.ExportEnrollments(normalizer.Views(list))
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("[ENROLLMENT] exported %d enrollments to %s", len(list), fileName)
	response.SendFile(w, utils.ContentTypeXLSX, fileName, data)
}
