package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrAccountNotFound    = errors.New("account not found")
)

// bcryptCost is lowered by tests
var bcryptCost = bcrypt.DefaultCost

const (
	minCustomerAge = 18
	maxCustomerAge = 110
)

// RegisterRequest is the customer sign-up form
type RegisterRequest struct {
	RUN       string                  `json:"run" validate:"required,run"`
	Type      string                  `json:"type"`
	FirstName string                  `json:"first_name" validate:"required,max=50"`
	LastName  string                  `json:"last_name" validate:"required,max=100"`
	Email     string                  `json:"email" validate:"required,max=100,email,allowed_email"`
	Birthdate string                  `json:"birthdate" validate:"required,isodate"`
	Region    string                  `json:"region" validate:"required"`
	Commune   string                  `json:"commune" validate:"required"`
	Address   string                  `json:"address" validate:"required,max=300"`
	Phone     string                  `json:"phone"`
	Password  string                  `json:"password" validate:"required,min=4,max=10"`
	PromoCode string                  `json:"promo_code"`
	Prefs     *models.UserPreferences `json:"prefs"`
}

// ProfileUpdate lists the fields a customer may change; nil leaves a field as is.
// RUN, email and birthdate are fixed at registration.
type ProfileUpdate struct {
	FirstName       *string                 `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName        *string                 `json:"last_name" validate:"omitempty,min=1,max=100"`
	Region          *string                 `json:"region"`
	Commune         *string                 `json:"commune"`
	Address         *string                 `json:"address" validate:"omitempty,max=300"`
	Phone           *string                 `json:"phone"`
	CurrentPassword *string                 `json:"current_password"`
	Password        *string                 `json:"password" validate:"omitempty,min=4,max=10"`
	PromoCode       *string                 `json:"promo_code"`
	Prefs           *models.UserPreferences `json:"prefs"`
}

// AccountService manages customer and staff accounts and their sessions
type AccountService struct {
	state              *State
	engine             *pricing.Engine
	adminPasswordCheck bool
	logger             *zap.Logger
}

// NewAccountService creates a new account service. With adminPasswordCheck
// off, staff log in by email alone.
func NewAccountService(state *State, engine *pricing.Engine, adminPasswordCheck bool) *AccountService {
	return &AccountService{
		state:              state,
		engine:             engine,
		adminPasswordCheck: adminPasswordCheck,
		logger:             util.GetLogger(),
	}
}

// Register creates a customer account, starts its session and merges the guest cart into it
func (a *AccountService) Register(ctx context.Context, req RegisterRequest) (models.CustomerSession, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Register")
	defer span.End()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Address = strings.TrimSpace(req.Address)

	errs := validation.Struct(req)
	if _, failed := errs["birthdate"]; !failed {
		a.checkAge(req.Birthdate, errs)
	}

	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if _, failed := errs["email"]; !failed && a.state.findCustomer(req.Email) >= 0 {
		errs.Add("email", "Este correo ya está registrado.")
	}
	if !errs.Empty() {
		return models.CustomerSession{}, errs
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return models.CustomerSession{}, err
	}

	promo := pricing.NormalizeCode(req.PromoCode)
	account := models.CustomerAccount{
		RUN:            validation.CleanRUN(req.RUN),
		Type:           req.Type,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Birthdate:      req.Birthdate,
		Region:         req.Region,
		Commune:        req.Commune,
		Address:        req.Address,
		Phone:          req.Phone,
		PasswordHash:   hash,
		PromoCode:      promo,
		PermanentPromo: a.engine.IsRegistrationCode(promo),
		CreatedAt:      a.engine.Now().UnixMilli(),
		Prefs:          req.Prefs,
	}
	if account.Type == "" {
		account.Type = models.RoleCustomer
	}

	a.state.customers = append(a.state.customers, account)
	a.state.saveCustomers(ctx)

	session := account.Session()
	a.startSession(ctx, session)

	a.logger.Info("Customer registered",
		zap.String("email", account.Email),
		zap.Bool("permanent_promo", account.PermanentPromo))
	return session, nil
}

func (a *AccountService) checkAge(birthdate string, errs validation.Errors) {
	now := a.engine.Now()
	birth, ok := pricing.ParseDate(birthdate, now.Location())
	if !ok {
		return
	}
	switch age := pricing.Age(birth, now); {
	case age < minCustomerAge:
		errs.Add("birthdate", "Debes ser mayor de edad (18+).")
	case age > maxCustomerAge:
		errs.Add("birthdate", "Ingresa una fecha real (máximo 110 años).")
	}
}

// Login verifies the credentials, merges the guest cart into the customer's
// cart and starts the session
func (a *AccountService) Login(ctx context.Context, email, password string) (models.CustomerSession, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Login")
	defer span.End()

	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	idx := a.state.findCustomer(email)
	if idx < 0 || !checkPassword(a.state.customers[idx].PasswordHash, password) {
		a.logger.Info("Customer login rejected", zap.String("email", strings.ToLower(strings.TrimSpace(email))))
		return models.CustomerSession{}, ErrInvalidCredentials
	}

	session := a.state.customers[idx].Session()
	a.startSession(ctx, session)

	a.logger.Info("Customer logged in", zap.String("email", session.Email))
	return session, nil
}

// startSession switches the instance to the customer and folds the guest
// cart into the customer's stored cart. Caller holds the lock.
func (a *AccountService) startSession(ctx context.Context, session models.CustomerSession) {
	guest := store.ReadJSON[[]models.CartEntry](ctx, a.state.kv, store.KeyGuestCart, nil)
	existing := store.ReadJSON[[]models.CartEntry](ctx, a.state.kv, store.CartKey(session.Email), nil)
	merged := mergeCarts(existing, guest)

	a.state.setSession(ctx, &session)
	a.state.setCart(ctx, merged)
	a.state.remove(ctx, store.KeyGuestCart)
	a.state.pruneCart(ctx)
}

// Logout ends the customer session and switches back to the guest cart
func (a *AccountService) Logout(ctx context.Context) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if a.state.session == nil {
		return
	}
	email := a.state.session.Email
	a.state.setSession(ctx, nil)
	a.state.loadCart(ctx)

	a.logger.Info("Customer logged out", zap.String("email", email))
}

// Session returns the current customer session, or nil for a guest
func (a *AccountService) Session(ctx context.Context) *models.CustomerSession {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if a.state.session == nil {
		return nil
	}
	session := *a.state.session
	return &session
}

// UpdateProfile applies the allowed changes to the logged-in customer.
// The permanent promo can never be switched on here.
func (a *AccountService) UpdateProfile(ctx context.Context, upd ProfileUpdate) (models.CustomerSession, error) {
	errs := validation.Struct(upd)
	if upd.FirstName != nil && strings.TrimSpace(*upd.FirstName) == "" {
		errs.Add("first_name", "first_name is required")
	}
	if upd.LastName != nil && strings.TrimSpace(*upd.LastName) == "" {
		errs.Add("last_name", "last_name is required")
	}
	if !errs.Empty() {
		return models.CustomerSession{}, errs
	}

	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if a.state.session == nil {
		return models.CustomerSession{}, ErrNotAuthorized
	}
	idx := a.state.findCustomer(a.state.session.Email)
	if idx < 0 {
		return models.CustomerSession{}, ErrAccountNotFound
	}

	account := a.state.customers[idx]
	setIf(&account.FirstName, upd.FirstName)
	setIf(&account.LastName, upd.LastName)
	setIf(&account.Region, upd.Region)
	setIf(&account.Commune, upd.Commune)
	setIf(&account.Address, upd.Address)
	setIf(&account.Phone, upd.Phone)
	if upd.Prefs != nil {
		account.Prefs = upd.Prefs
	}
	if upd.PromoCode != nil {
		code := pricing.NormalizeCode(*upd.PromoCode)
		if !a.engine.IsRegistrationCode(code) || account.PermanentPromo {
			account.PromoCode = code
		}
	}
	if upd.Password != nil {
		if upd.CurrentPassword == nil || !checkPassword(account.PasswordHash, *upd.CurrentPassword) {
			return models.CustomerSession{}, validation.Errors{"current_password": "Contraseña actual incorrecta."}
		}
		hash, err := hashPassword(*upd.Password)
		if err != nil {
			return models.CustomerSession{}, err
		}
		account.PasswordHash = hash
	}

	a.state.customers[idx] = account
	a.state.saveCustomers(ctx)

	session := account.Session()
	a.state.setSession(ctx, &session)
	return session, nil
}

// Customers lists the registered customers; staff only
func (a *AccountService) Customers(ctx context.Context) ([]models.CustomerAccount, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if err := a.state.requireStaff(); err != nil {
		return nil, err
	}
	return append([]models.CustomerAccount{}, a.state.customers...), nil
}

// UpsertCustomer replaces the customer with the same email or adds it; staff only.
// An existing customer keeps its RUN, permanent promo and creation time; an empty
// password hash or redemption year keeps the stored one.
func (a *AccountService) UpsertCustomer(ctx context.Context, account models.CustomerAccount) error {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if err := a.state.requireStaff(); err != nil {
		return err
	}
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	if account.Email == "" {
		return validation.Errors{"email": "email is required"}
	}

	if idx := a.state.findCustomer(account.Email); idx >= 0 {
		stored := a.state.customers[idx]
		if account.PasswordHash == "" {
			account.PasswordHash = stored.PasswordHash
		}
		if account.BirthdayRedeemedYear == nil {
			account.BirthdayRedeemedYear = stored.BirthdayRedeemedYear
		}
		account.RUN = stored.RUN
		account.PermanentPromo = stored.PermanentPromo
		account.CreatedAt = stored.CreatedAt
		a.state.customers[idx] = account
	} else {
		a.state.customers = append(a.state.customers, account)
	}
	a.state.saveCustomers(ctx)

	if a.state.session != nil && strings.EqualFold(a.state.session.Email, account.Email) {
		session := account.Session()
		a.state.setSession(ctx, &session)
	}
	return nil
}

// RemoveCustomer deletes the customer with the given email; staff only
func (a *AccountService) RemoveCustomer(ctx context.Context, email string) (bool, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if err := a.state.requireStaff(); err != nil {
		return false, err
	}
	idx := a.state.findCustomer(email)
	if idx < 0 {
		return false, nil
	}
	a.state.customers = append(a.state.customers[:idx:idx], a.state.customers[idx+1:]...)
	a.state.saveCustomers(ctx)
	return true, nil
}

// Admins lists the staff accounts; staff only
func (a *AccountService) Admins(ctx context.Context) ([]models.AdminAccount, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if err := a.state.requireStaff(); err != nil {
		return nil, err
	}
	return append([]models.AdminAccount{}, a.state.admins...), nil
}

// UpsertAdmin replaces the staff account with the same RUN or adds it.
// Only administrators may manage staff. A blank password keeps the stored hash.
func (a *AccountService) UpsertAdmin(ctx context.Context, account models.AdminAccount, password string) error {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if err := a.state.requireRole(models.RoleAdmin); err != nil {
		return err
	}

	errs := validation.Errors{}
	account.RUN = strings.ToUpper(strings.TrimSpace(account.RUN))
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	if account.RUN == "" {
		errs.Add("run", "run is required")
	}
	if account.Email == "" {
		errs.Add("email", "email is required")
	}
	switch account.Role {
	case models.RoleAdmin, models.RoleSeller, models.RoleCustomer:
	default:
		errs.Add("role", fmt.Sprintf("Unknown role %q", account.Role))
	}
	if !errs.Empty() {
		return errs
	}

	if password != "" {
		hash, err := hashPassword(password)
		if err != nil {
			return err
		}
		account.PasswordHash = hash
	}

	idx := a.state.findAdminByRUN(account.RUN)
	if idx >= 0 {
		if account.PasswordHash == "" {
			account.PasswordHash = a.state.admins[idx].PasswordHash
		}
		a.state.admins[idx] = account
	} else {
		a.state.admins = append(a.state.admins, account)
	}
	a.state.persist(ctx, store.KeyAdmins, a.state.admins)

	a.logger.Info("Staff account saved", zap.String("run", account.RUN), zap.String("role", account.Role))
	return nil
}

// RemoveAdmin deletes the staff account with the given RUN; administrators only
func (a *AccountService) RemoveAdmin(ctx context.Context, run string) (bool, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if err := a.state.requireRole(models.RoleAdmin); err != nil {
		return false, err
	}
	idx := a.state.findAdminByRUN(run)
	if idx < 0 {
		return false, nil
	}
	a.state.admins = append(a.state.admins[:idx:idx], a.state.admins[idx+1:]...)
	a.state.persist(ctx, store.KeyAdmins, a.state.admins)
	return true, nil
}

// AdminLogin starts a staff session for the account with the given email
func (a *AccountService) AdminLogin(ctx context.Context, email, password string) (models.AdminSession, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	var account *models.AdminAccount
	for i := range a.state.admins {
		if strings.ToLower(a.state.admins[i].Email) == email {
			account = &a.state.admins[i]
			break
		}
	}
	if account == nil {
		return models.AdminSession{}, ErrInvalidCredentials
	}

	if a.adminPasswordCheck && account.PasswordHash != "" {
		if !checkPassword(account.PasswordHash, password) {
			return models.AdminSession{}, ErrInvalidCredentials
		}
	} else {
		a.logger.Warn("Staff login accepted without password verification", zap.String("email", email))
	}

	session := models.AdminSession{
		Email: account.Email,
		Name:  strings.TrimSpace(account.FirstName + " " + account.LastName),
		Role:  account.Role,
	}
	a.state.adminSession = &session
	a.state.persist(ctx, store.KeyAdminSession, session)

	a.logger.Info("Staff logged in", zap.String("email", session.Email), zap.String("role", session.Role))
	return session, nil
}

// AdminLogout ends the staff session
func (a *AccountService) AdminLogout(ctx context.Context) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	a.state.adminSession = nil
	a.state.remove(ctx, store.KeyAdminSession)
}

// AdminSession returns the current staff session, or nil
func (a *AccountService) AdminSession(ctx context.Context) *models.AdminSession {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	if a.state.adminSession == nil {
		return nil
	}
	session := *a.state.adminSession
	return &session
}

// requireStaff admits administrators and sellers
func (s *State) requireStaff() error {
	if s.adminSession == nil {
		return ErrNotAuthorized
	}
	switch s.adminSession.Role {
	case models.RoleAdmin, models.RoleSeller:
		return nil
	}
	return ErrNotAuthorized
}

func (s *State) requireRole(role string) error {
	if s.adminSession == nil || s.adminSession.Role != role {
		return ErrNotAuthorized
	}
	return nil
}

func (s *State) findAdminByRUN(run string) int {
	run = strings.ToUpper(strings.TrimSpace(run))
	for i, a := range s.admins {
		if strings.ToUpper(a.RUN) == run {
			return i
		}
	}
	return -1
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
