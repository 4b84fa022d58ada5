package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/andrewpaige1/problempad/cache"
	"github.com/andrewpaige1/problempad/models"
	"github.com/andrewpaige1/problempad/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DBHandler struct {
	*gorm.DB
	// Counts is optional; nil disables count caching.
	Counts cache.CountCache
	Log    *zap.Logger
}

func (db *DBHandler) logger() *zap.Logger {
	if db.Log == nil {
		return zap.NewNop()
	}
	return db.Log
}

// GET /api/problems
func (db *DBHandler) ListProblems(w http.ResponseWriter, r *http.Request) {
	problems := []models.Problem{}
	if err := db.WithContext(r.Context()).Order("id").Find(&problems).Error; err != nil {
		db.writeError(w, r, "ListProblems", storeError("Failed to fetch problems", err))
		return
	}

	writeJSON(w, http.StatusOK, problems)
}

// GET /api/problems/count
func (db *DBHandler) CountProblems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The cache generation is read before the store so a write that lands
	// in between makes the later Set a no-op.
	var gen int64
	cacheable := false
	if db.Counts != nil {
		count, g, ok, err := db.Counts.Get(ctx)
		switch {
		case err != nil:
			db.logger().Warn("CountProblems: cache read failed", zap.Error(err))
		case ok:
			writeJSON(w, http.StatusOK, models.CountResponse{Count: count})
			return
		default:
			gen, cacheable = g, true
		}
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Problem{}).Count(&count).Error; err != nil {
		db.writeError(w, r, "CountProblems", storeError("Failed to count problems", err))
		return
	}

	if cacheable {
		stored, err := db.Counts.Set(ctx, gen, count)
		if err != nil {
			db.logger().Warn("CountProblems: cache write failed", zap.Error(err))
		} else if !stored {
			db.logger().Debug("CountProblems: skipped caching a superseded count", zap.Int64("generation", gen))
		}
	}

	writeJSON(w, http.StatusOK, models.CountResponse{Count: count})
}

// POST /api/problems
func (db *DBHandler) CreateProblem(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to create problem"

	type CreateProblemRequest struct {
		Title      json.RawMessage `json:"title"`
		Difficulty json.RawMessage `json:"difficulty"`
		Solved     *bool           `json:"solved"`
		Code       *string         `json:"code"`
	}

	var req CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		db.writeError(w, r, "CreateProblem", storeError(failed, err))
		return
	}

	if utils.IsBlank(req.Title) || utils.IsBlank(req.Difficulty) {
		db.writeError(w, r, "CreateProblem", validationError("Title and difficulty are required."))
		return
	}
	title, err := utils.RequiredString(req.Title)
	if err != nil {
		db.writeError(w, r, "CreateProblem", storeError(failed, fmt.Errorf("title: %w", err)))
		return
	}
	difficulty, err := utils.RequiredString(req.Difficulty)
	if err != nil {
		db.writeError(w, r, "CreateProblem", storeError(failed, fmt.Errorf("difficulty: %w", err)))
		return
	}

	problem := models.Problem{
		Title:      title,
		Difficulty: difficulty,
		Code:       req.Code,
	}
	if req.Solved != nil {
		problem.Solved = *req.Solved
	}

	if err := db.WithContext(r.Context()).Create(&problem).Error; err != nil {
		db.writeError(w, r, "CreateProblem", storeError(failed, err))
		return
	}
	db.invalidateCount(r, "CreateProblem")

	db.logger().Info("CreateProblem: created problem", zap.Int64("id", problem.ID))
	writeJSON(w, http.StatusCreated, problem)
}

// PUT /api/problems
//
// Only the code field is writable. An id that names no problem is reported
// as a store failure, not a 404.
func (db *DBHandler) UpdateProblem(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to update problem"

	type UpdateProblemRequest struct {
		ID   json.RawMessage `json:"id"`
		Code json.RawMessage `json:"code"`
	}

	var req UpdateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		db.writeError(w, r, "UpdateProblem", storeError(failed, err))
		return
	}

	numericID, ok := utils.CoerceID(req.ID)
	if !ok {
		db.writeError(w, r, "UpdateProblem", validationError("Invalid ID format"))
		return
	}
	id, ok := utils.IntegralID(numericID)
	if !ok {
		db.writeError(w, r, "UpdateProblem", storeError(failed, utils.ErrInvalidID))
		return
	}

	var code *string
	hasCode := len(req.Code) > 0
	if hasCode {
		if err := json.Unmarshal(req.Code, &code); err != nil {
			db.writeError(w, r, "UpdateProblem", storeError(failed, err))
			return
		}
	}

	tx := db.WithContext(r.Context()).Begin()
	if tx.Error != nil {
		db.writeError(w, r, "UpdateProblem", storeError(failed, tx.Error))
		return
	}

	var problem models.Problem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&problem, id).Error; err != nil {
		tx.Rollback()
		db.writeError(w, r, "UpdateProblem", storeError(failed, err))
		return
	}

	if hasCode {
		var value interface{}
		if code != nil {
			value = *code
		}
		result := tx.Model(&problem).Updates(map[string]interface{}{"code": value})
		if result.Error != nil {
			tx.Rollback()
			db.writeError(w, r, "UpdateProblem", storeError(failed, result.Error))
			return
		}
		// Some drivers report zero rows for an unchanged value, so a zero
		// count is only fatal when the row is really gone.
		if result.RowsAffected == 0 {
			if err := tx.Select("id").First(&models.Problem{}, id).Error; err != nil {
				tx.Rollback()
				db.writeError(w, r, "UpdateProblem", storeError(failed, err))
				return
			}
		}
		problem.Code = code
	}

	if err := tx.Commit().Error; err != nil {
		db.writeError(w, r, "UpdateProblem", storeError(failed, err))
		return
	}

	writeJSON(w, http.StatusOK, problem)
}

// DELETE /api/problems
func (db *DBHandler) DeleteProblem(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to delete problem"

	type DeleteProblemRequest struct {
		ID json.RawMessage `json:"id"`
	}

	var req DeleteProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		db.writeError(w, r, "DeleteProblem", storeError(failed, err))
		return
	}

	id, err := utils.StrictID(req.ID)
	if errors.Is(err, utils.ErrIDRequired) {
		db.writeError(w, r, "DeleteProblem", validationError("ID is required to delete a problem"))
		return
	}
	if err != nil {
		db.writeError(w, r, "DeleteProblem", storeError(failed, err))
		return
	}

	// The lookup and the delete share a transaction so the returned record is
	// exactly the row that was removed.
	tx := db.WithContext(r.Context()).Begin()
	if tx.Error != nil {
		db.writeError(w, r, "DeleteProblem", storeError(failed, tx.Error))
		return
	}

	var problem models.Problem
	if err := tx.First(&problem, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			db.writeError(w, r, "DeleteProblem", notFoundError("Problem not found"))
			return
		}
		db.writeError(w, r, "DeleteProblem", storeError(failed, err))
		return
	}

	if err := tx.Delete(&problem).Error; err != nil {
		tx.Rollback()
		db.writeError(w, r, "DeleteProblem", storeError(failed, err))
		return
	}

	if err := tx.Commit().Error; err != nil {
		db.writeError(w, r, "DeleteProblem", storeError(failed, err))
		return
	}
	db.invalidateCount(r, "DeleteProblem")

	db.logger().Info("DeleteProblem: deleted problem", zap.Int64("id", problem.ID))
	writeJSON(w, http.StatusOK, models.DeleteResponse{Message: "Problem deleted", Problem: problem})
}

func (db *DBHandler) invalidateCount(r *http.Request, op string) {
	if db.Counts == nil {
		return
	}
	if err := db.Counts.Invalidate(r.Context()); err != nil {
		db.logger().Warn(op+": cache invalidation failed", zap.Error(err))
	}
}
