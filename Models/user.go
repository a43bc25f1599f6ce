package Models

import (
	"errors"
	"strings"

	"github.com/gurunathasmb/Major-project/Utils/Token"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
)

type User struct {
	gorm.Model
	Username string        `gorm:"size:255;not null;unique" json:"username"`
	Password string        `gorm:"size:255;not null;" json:"-"`
	Role     string        `gorm:"size:16;not null;default:doctor" json:"role"`
	IsActive bool          `gorm:"not null;default:true" json:"is_active"`
	Tokens   []DeviceToken `gorm:"foreignKey:UserID" json:"-"`
}

type DeviceToken struct {
	gorm.Model
	UserID uint
	Value  string `json:"value" gorm:"size:512;unique"`
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func GetUserByID(uid uint) (User, error) {
	var user User

	if err := DB.First(&user, uid).Error; err != nil {
		return user, errors.New("User not found")
	}

	user.PrepareGive()

	return user, nil
}

func GetUserByUsername(username string) (User, error) {
	var user User
	err := DB.Where("username = ?", NormalizeUsername(username)).Take(&user).Error
	return user, notFound(err)
}

// GetFCMsByID returns the device tokens registered by a user.
func GetFCMsByID(uid uint) ([]string, error) {
	var fcms []string
	if err := DB.Model(&DeviceToken{}).Where("user_id = ?", uid).Pluck("value", &fcms).Error; err != nil {
		return nil, err
	}
	return fcms, nil
}

// GetAdminFCMs returns the device tokens of every active admin.
func GetAdminFCMs() ([]string, error) {
	var fcms []string
	err := DB.Model(&DeviceToken{}).
		Joins("JOIN users ON users.id = device_tokens.user_id").
		Where("users.role = ? AND users.is_active = ? AND users.deleted_at IS NULL", RoleAdmin, true).
		Pluck("device_tokens.value", &fcms).Error
	return fcms, err
}

func SaveDeviceToken(uid uint, value string) error {
	var token DeviceToken
	err := DB.Where("value = ?", value).Take(&token).Error
	if err == nil {
		token.UserID = uid
		return DB.Save(&token).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return DB.Create(&DeviceToken{UserID: uid, Value: value}).Error
}

func (user *User) PrepareGive() {
	user.Password = ""
}

// bcryptInput truncates to the 72 bytes bcrypt actually reads; newer bcrypt
// versions reject longer inputs outright.
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	return b
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func VerifyPassword(password, hashedPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), bcryptInput(password))
}

// LoginCheck verifies credentials and returns the user with a signed token.
// Deactivated accounts get ErrInactive after the password matched.
func LoginCheck(username string, password string) (User, string, error) {
	user, err := GetUserByUsername(username)
	if err != nil {
		return User{}, "", err
	}

	if err := VerifyPassword(password, user.Password); err != nil {
		return User{}, "", err
	}

	if !user.IsActive {
		return User{}, "", ErrInactive
	}

	token, err := Token.GenerateToken(user.ID, user.Role)
	if err != nil {
		return User{}, "", err
	}

	user.PrepareGive()
	return user, token, nil
}

func (user *User) SaveUser() (*User, error) {
	return user.SaveUserTx(DB)
}

func (user *User) SaveUserTx(tx *gorm.DB) (*User, error) {
	if err := user.prepareForSave(); err != nil {
		return &User{}, err
	}

	var count int64
	if err := tx.Model(&User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return &User{}, err
	}
	if count > 0 {
		return &User{}, ErrDuplicate
	}

	if err := tx.Create(user).Error; err != nil {
		return &User{}, err
	}

	return user, nil
}

func (user *User) prepareForSave() error {
	hashedPassword, err := HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashedPassword
	user.Username = NormalizeUsername(user.Username)
	if user.Role == "" {
		user.Role = RoleDoctor
	}
	return nil
}

// EnsureAdmin creates the admin account if no user with that username exists.
func EnsureAdmin(username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	if _, err := GetUserByUsername(username); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	admin := User{Username: username, Password: password, Role: RoleAdmin, IsActive: true}
	if _, err := admin.SaveUser(); err != nil {
		return false, err
	}
	return true, nil
}
