package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"stockroom/internal/backup"
	"stockroom/internal/export"
	"stockroom/internal/models"
	"stockroom/internal/response"
)

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Err(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func actor(r *http.Request) string {
	u, _ := CurrentUser(r.Context())
	return u.Username
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())
	response.JSON(w, u)
}

func productFilter(r *http.Request) (models.ProductFilter, bool) {
	q := r.URL.Query()
	f := models.ProductFilter{Search: strings.TrimSpace(q.Get("search"))}
	if c := q.Get("category_id"); c != "" {
		id, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			return f, false
		}
		f.CategoryID = &id
	}
	return f, true
}

func (a *App) handleListProducts(w http.ResponseWriter, r *http.Request) {
	f, ok := productFilter(r)
	if !ok {
		response.Err(w, "invalid category_id", http.StatusBadRequest)
		return
	}
	rows, err := a.Inventory.Products(r.Context(), f)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSONList(w, rows)
}

func (a *App) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := a.Inventory.Product(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, p)
}

func (a *App) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := response.DecodeBody(r, &in); err != nil {
		response.Err(w, "invalid body", http.StatusBadRequest)
		return
	}
	id, err := a.Inventory.AddProduct(r.Context(), actor(r), in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, map[string]int64{"id": id})
}

func (a *App) handleEditProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in models.ProductInput
	if err := response.DecodeBody(r, &in); err != nil {
		response.Err(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := a.Inventory.EditProduct(r.Context(), actor(r), id, in); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, map[string]int64{"id": id})
}

func (a *App) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	name, err := a.Inventory.DeleteProduct(r.Context(), actor(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, map[string]string{"deleted": name})
}

func (a *App) handleExportProducts(w http.ResponseWriter, r *http.Request) {
	f, ok := productFilter(r)
	if !ok {
		response.Err(w, "invalid category_id", http.StatusBadRequest)
		return
	}
	rows, err := a.Inventory.Products(r.Context(), f)
	if err != nil {
		response.FromError(w, err)
		return
	}

	// Render into a buffer so a write failure can still produce an error response.
	var buf bytes.Buffer
	var contentType, filename string
	switch r.URL.Query().Get("format") {
	case "", "csv":
		contentType, filename = "text/csv", "products.csv"
		err = export.WriteCSV(&buf, rows)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "products.xlsx"
		err = export.WriteXLSX(&buf, rows)
	default:
		response.Err(w, "format must be csv or xlsx", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.Log.Error("export products", zap.Error(err))
		response.Err(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(buf.Bytes())
}

func (a *App) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.Inventory.Categories(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSONList(w, cats)
}

func (a *App) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := response.DecodeBody(r, &body); err != nil {
		response.Err(w, "invalid body", http.StatusBadRequest)
		return
	}
	id, err := a.Inventory.AddCategory(r.Context(), body.Name)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, map[string]int64{"id": id})
}

func (a *App) handleListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := a.Inventory.Logs(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSONList(w, logs)
}

func (a *App) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Inventory.Users(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSONList(w, users)
}

func (a *App) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := response.DecodeBody(r, &body); err != nil {
		response.Err(w, "invalid body", http.StatusBadRequest)
		return
	}
	id, err := a.Inventory.AddUser(r.Context(), body.Username, body.Password, body.Role)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, map[string]int64{"id": id})
}

func (a *App) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var upd models.UserUpdate
	if err := response.DecodeBody(r, &upd); err != nil {
		response.Err(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := a.Inventory.UpdateUser(r.Context(), id, upd); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, map[string]int64{"id": id})
}

func (a *App) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if u, _ := CurrentUser(r.Context()); u.ID == id {
		response.Err(w, "cannot delete the logged-in account", http.StatusBadRequest)
		return
	}
	if err := a.Inventory.DeleteUser(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, map[string]int64{"id": id})
}

func (a *App) handleBackup(w http.ResponseWriter, r *http.Request) {
	path, err := a.Backups.Backup(r.Context(), a.BackupDir)
	if err != nil {
		a.Log.Error("backup failed", zap.Error(err))
		response.FromError(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, map[string]string{"path": path})
}

func (a *App) handleListBackups(w http.ResponseWriter, r *http.Request) {
	list, err := backup.List(a.BackupDir)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSONList(w, list)
}

func (a *App) handleRestore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filename string `json:"filename"`
	}
	if err := response.DecodeBody(r, &body); err != nil {
		response.Err(w, "invalid body", http.StatusBadRequest)
		return
	}
	path, err := backup.ResolveName(a.BackupDir, body.Filename)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if err := a.Backups.Restore(r.Context(), path); err != nil {
		a.Log.Error("restore failed", zap.Error(err), zap.String("file", body.Filename))
		response.FromError(w, err)
		return
	}
	response.JSON(w, map[string]string{"restored": body.Filename})
}
