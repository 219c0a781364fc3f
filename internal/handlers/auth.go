package handlers

import (
	"net/http"
	"strings"

	"retail-audit/internal/database"
	"retail-audit/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func ShowLogin(c *gin.Context) {
	render(c, http.StatusOK, "login.html", gin.H{"error": ""})
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "login.html", gin.H{"error": "Datos inválidos"})
		return
	}

	user, ok := database.Authenticate(strings.TrimSpace(form.Username), form.Password)
	if !ok {
		render(c, http.StatusBadRequest, "login.html", gin.H{"error": "Usuario o contraseña incorrectos"})
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	_ = sess.Save()

	c.Redirect(http.StatusFound, "/dashboard")
}

func Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Redirect(http.StatusFound, "/login")
}

// ====== ПОЛЬЗОВАТЕЛИ (только админ) ======

func ListUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Order("username asc").Find(&users).Error; err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar usuarios")
		return
	}

	render(c, http.StatusOK, "users_list.html", gin.H{
		"users": users,
	})
}

func ShowNewUser(c *gin.Context) {
	renderUserForm(c, http.StatusOK, "")
}

type userForm struct {
	Username  string `form:"username"`
	Password  string `form:"password"`
	Role      string `form:"role"`
	StoreCode string `form:"store_code"`
}

func CreateUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		renderUserForm(c, http.StatusBadRequest, "Datos inválidos")
		return
	}

	form.Username = strings.TrimSpace(form.Username)
	if len(form.Username) < 3 || len(form.Password) < 6 {
		renderUserForm(c, http.StatusBadRequest, "Usuario o contraseña demasiado cortos")
		return
	}

	role := models.UserRole(form.Role)
	if !role.Valid() {
		renderUserForm(c, http.StatusBadRequest, "Rol inválido")
		return
	}

	storeCode := strings.ToUpper(strings.TrimSpace(form.StoreCode))
	if storeCode != "" {
		if _, err := database.FindStore(storeCode); err != nil {
			renderUserForm(c, http.StatusBadRequest, "Tienda no encontrada")
			return
		}
	}

	var count int64
	if err := database.DB.Model(&models.User{}).Where("username = ?", form.Username).Count(&count).Error; err != nil {
		renderUserForm(c, http.StatusInternalServerError, "Error al verificar el usuario")
		return
	}
	if count > 0 {
		renderUserForm(c, http.StatusBadRequest, "El usuario ya existe")
		return
	}

	user, err := database.CreateUser(form.Username, form.Password, role, storeCode)
	if err != nil {
		renderUserForm(c, http.StatusInternalServerError, "Error al guardar el usuario")
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "user", user.ID, "create", "Usuario creado: "+user.Username)

	c.Redirect(http.StatusFound, "/users")
}

func renderUserForm(c *gin.Context, status int, msg string) {
	stores, err := database.ListStores(database.StoreFilter{})
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar tiendas")
		return
	}
	render(c, status, "users_new.html", gin.H{
		"error":  msg,
		"stores": stores,
		"roles":  []models.UserRole{models.RoleManager, models.RoleRegional, models.RoleAdmin},
	})
}
