package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/handler/dto"
	"github.com/mtlprog/teamtask/internal/service"
)

// handleCreateTask creates a task in a project. Only project Leads may create tasks.
// @Summary Create a task
// @Description Creates a task in ToDo. Only project Leads may create tasks.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body dto.CreateTaskRequest true "Task creation request"
// @Success 201 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id}/tasks [post]
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	projectID, ok := extractID(w, r, "project")
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.tasks.CreateTask(r.Context(), actor, projectID, service.CreateTaskParams{
		Title:            req.Title,
		Description:      req.Description,
		Priority:         domain.TaskPriority(req.Priority),
		AssignedToUserID: req.AssignedToUserID,
		DueDate:          req.DueDate,
		EstimatedHours:   req.EstimatedHours,
		Tags:             req.Tags,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToMutationResponse(res, h.now()))
}

// handleGetTask returns a task with its comments, attachments, history and the caller's capabilities.
// @Summary Get a task
// @Description Returns the task with capabilities, comments, attachments and history, newest first.
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskDetailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	details, err := h.tasks.GetTask(r.Context(), actor, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetailResponse(details, h.now()))
}

// handleUpdateTask applies a partial update to a task.
// @Summary Update a task
// @Description Partial update. Absent fields are left unchanged; assigned_to_user_id "" unassigns.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body dto.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [patch]
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := service.EditTaskParams{
		Title:              req.Title,
		Description:        req.Description,
		AssignedToUserID:   req.AssignedToUserID,
		DueDate:            req.DueDate,
		ClearDueDate:       req.ClearDueDate,
		ProgressPercentage: req.ProgressPercentage,
		EstimatedHours:     req.EstimatedHours,
		ActualHours:        req.ActualHours,
		Tags:               req.Tags,
		ExpectedVersion:    req.ExpectedVersion,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		params.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		params.Priority = &priority
	}

	res, err := h.tasks.EditTask(r.Context(), actor, taskID, params)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMutationResponse(res, h.now()))
}

// handleChangeStatus moves a task to another status.
// @Summary Change task status
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body dto.ChangeStatusRequest true "Target status"
// @Success 200 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/status [patch]
func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.tasks.ChangeStatus(r.Context(), actor, taskID, domain.TaskStatus(req.Status))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMutationResponse(res, h.now()))
}

// handleDeleteTask deletes a task with everything attached to it.
// @Summary Delete a task
// @Description Deletes the task with its comments, attachments and history. Lead or creator only.
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	if _, err := h.tasks.DeleteTask(r.Context(), actor, taskID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleAddComment posts a comment on a task.
// @Summary Comment on a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body dto.CommentRequest true "Comment"
// @Success 201 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/comments [post]
func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.tasks.AddComment(r.Context(), actor, taskID, service.CommentParams{Content: req.Content})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToMutationResponse(res, h.now()))
}

// handleAddAttachment uploads the multipart "file" part to a task.
// @Summary Upload an attachment
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Task ID"
// @Param file formData file true "File up to 10 MiB"
// @Success 201 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/attachments [post]
func (h *Handler) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	// Leave headroom for multipart framing so oversized files reach validation.
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxAttachmentSize+maxUploadMemory)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the 10 MiB limit")
			return
		}
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "expected multipart form with a file part")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "file part is required")
		return
	}
	defer file.Close()

	res, err := h.tasks.AddAttachment(r.Context(), actor, taskID, service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToMutationResponse(res, h.now()))
}

// handleDeleteAttachment removes an attachment.
// @Summary Delete an attachment
// @Tags attachments
// @Param id path string true "Attachment ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /attachments/{id} [delete]
func (h *Handler) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	attachmentID, ok := extractID(w, r, "attachment")
	if !ok {
		return
	}

	if _, err := h.tasks.DeleteAttachment(r.Context(), actor, attachmentID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleProjectBoard lists a project's tasks with status counts.
// @Summary Project board
// @Description Lists a page of the project's tasks with per-status counts. Members only.
// @Tags tasks
// @Produce json
// @Param id path string true "Project ID"
// @Param status query string false "Comma-separated statuses"
// @Param priority query string false "Comma-separated priorities"
// @Param assignee query string false "User UUID or me"
// @Param unassigned query bool false "Only unassigned tasks"
// @Param overdue query bool false "Only overdue tasks"
// @Param sort query string false "Comma-separated sort fields, - prefix for descending"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.BoardResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id}/tasks [get]
func (h *Handler) handleProjectBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	projectID, ok := extractID(w, r, "project")
	if !ok {
		return
	}

	params, err := parseListParams(r, actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	board, err := h.tasks.ProjectBoard(r.Context(), actor, projectID, params)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToBoardResponse(board, effectiveLimit(params), params.Offset, h.now()))
}

// handleMyTasks lists tasks assigned to the caller across projects.
// @Summary My tasks
// @Description Tasks assigned to the caller across projects, most urgent first.
// @Tags tasks
// @Produce json
// @Param status query string false "Comma-separated statuses"
// @Param priority query string false "Comma-separated priorities"
// @Param overdue query bool false "Only overdue tasks"
// @Param sort query string false "Comma-separated sort fields, - prefix for descending"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.TasksListResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /me/tasks [get]
func (h *Handler) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	params, err := parseListParams(r, actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	tasks, total, err := h.tasks.MyTasks(r.Context(), actor, params)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.TasksListResponse{
		Tasks:  dto.ToTaskResponses(tasks, h.now()),
		Total:  total,
		Limit:  effectiveLimit(params),
		Offset: params.Offset,
	})
}

// parseListParams reads listing filters from the query string.
// Range checks on limit and offset are left to the service validator.
func parseListParams(r *http.Request, actor domain.ActorContext) (service.TaskListParams, error) {
	query := r.URL.Query()
	var params service.TaskListParams

	if statusParam := query.Get("status"); statusParam != "" {
		for _, s := range splitAndTrim(statusParam, ",") {
			params.Statuses = append(params.Statuses, domain.TaskStatus(s))
		}
	}

	if priorityParam := query.Get("priority"); priorityParam != "" {
		for _, p := range splitAndTrim(priorityParam, ",") {
			params.Priorities = append(params.Priorities, domain.TaskPriority(p))
		}
	}

	if assigneeParam := query.Get("assignee"); assigneeParam != "" {
		if assigneeParam == "me" {
			params.AssigneeID = &actor.UserID
		} else {
			params.AssigneeID = &assigneeParam
		}
	}
	params.Unassigned = query.Get("unassigned") == "true"
	params.Overdue = query.Get("overdue") == "true"

	if sortParam := query.Get("sort"); sortParam != "" {
		params.Sort = splitAndTrim(sortParam, ",")
	}

	verr := &domain.ValidationError{}
	params.Limit = queryInt(query, "limit", verr)
	params.Offset = queryInt(query, "offset", verr)
	if len(verr.Fields) > 0 {
		return params, verr
	}

	return params, nil
}

// queryInt parses an optional integer query parameter, recording a field error when malformed.
func queryInt(query url.Values, name string, verr *domain.ValidationError) int {
	raw := query.Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(name, "must be an integer")
		return 0
	}
	return n
}

func effectiveLimit(params service.TaskListParams) int {
	if params.Limit == 0 {
		return service.DefaultPageSize
	}
	return params.Limit
}

// splitAndTrim splits a string by delimiter and trims whitespace.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
