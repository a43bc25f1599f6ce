package Controllers

import (
	"errors"
	"net/http"

	"github.com/gurunathasmb/Major-project/Models"

	"github.com/gin-gonic/gin"
)

type LoginInput struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := Models.LoginCheck(input.Username, input.Password)
	if errors.Is(err, Models.ErrInactive) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account deactivated"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username or password is incorrect."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login Successful", "jwt": token, "role": user.Role})
}

// IssueToken is the form-encoded password grant used by OAuth2 clients.
func IssueToken(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, token, err := Models.LoginCheck(input.Username, input.Password)
	if errors.Is(err, Models.ErrInactive) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account deactivated"})
		return
	}
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func CurrentUser(c *gin.Context) {
	user := currentUser(c)

	var output struct {
		ID         uint   `json:"ID"`
		Username   string `json:"username"`
		Role       string `json:"role"`
		DoctorCode string `json:"doctor_code,omitempty"`
		DoctorName string `json:"doctor_name,omitempty"`
	}
	output.ID = user.ID
	output.Username = user.Username
	output.Role = user.Role
	if doctor, ok := currentDoctor(c); ok {
		output.DoctorCode = doctor.Code
		output.DoctorName = doctor.Name
	}
	c.JSON(http.StatusOK, gin.H{"message": "success", "data": output})
}

func SaveFcmToken(c *gin.Context) {
	var input struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := Models.SaveDeviceToken(currentUser(c).ID, input.Token); err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token saved"})
}
