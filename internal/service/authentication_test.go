package service

import (
	"context"
	"errors"

	"github.com/alimikegami/campus-platform/auth-service/internal/domain"
	"github.com/alimikegami/campus-platform/auth-service/internal/dto"
	"github.com/alimikegami/campus-platform/auth-service/pkg/errs"
	"github.com/alimikegami/campus-platform/auth-service/pkg/password"
	"github.com/alimikegami/campus-platform/auth-service/pkg/token"
)

func (s *ServiceTestSuite) activate(id int64, plain string) {
	hash, err := s.codec.Hash(plain)
	s.Require().NoError(err)
	u := s.repo.users[id]
	u.PasswordHash = &hash
	s.repo.users[id] = u
}

func (s *ServiceTestSuite) Test_SigninByEmailAndCIN() {
	phone := "+21620000000"
	u := s.repo.users[1]
	u.Phone = &phone
	s.repo.users[1] = u
	s.activate(1, "Secr3t!pass#")

	for _, identifier := range []string{"amine@school.tn", "09876543"} {
		resp, err := s.svc.Signin(context.Background(), dto.SigninRequest{CinOrEmail: identifier, Password: "Secr3t!pass#"})
		s.Require().NoError(err)

		s.Equal("bearer", resp.TokenType)
		s.Equal([]string{"student"}, resp.Roles)
		s.Equal(int64(1), resp.User.ID)
		s.Equal("amine@school.tn", resp.User.Email)
		s.Equal(&phone, resp.User.Phone)
		s.Nil(resp.User.Image)

		result := s.issuer.Validate(resp.AccessToken)
		s.Require().Equal(token.Valid, result.Status)
		s.Equal("amine@school.tn", result.Claims.Subject)
		s.Equal(int64(1), result.Claims.ID)
		s.Equal([]string{"student"}, result.Claims.Roles)
	}
}

func (s *ServiceTestSuite) Test_SigninInvalidCredentialsAreIndistinguishable() {
	s.activate(1, "right-password")

	testCases := []struct {
		name string
		req  dto.SigninRequest
	}{
		{"unknown identifier", dto.SigninRequest{CinOrEmail: "nobody@school.tn", Password: "right-password"}},
		{"not activated", dto.SigninRequest{CinOrEmail: "sonia@school.tn", Password: "right-password"}},
		{"wrong password", dto.SigninRequest{CinOrEmail: "amine@school.tn", Password: "wrong-password"}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, err := s.svc.Signin(context.Background(), tc.req)
			s.ErrorIs(err, errs.ErrInvalidCredentials)
			s.Equal(errs.ErrInvalidCredentials.Error(), err.Error())
			s.Empty(resp.AccessToken)
		})
	}

	s.Zero(s.repo.writes)
}

func (s *ServiceTestSuite) Test_SigninMigratesLegacyHash() {
	legacy := password.LegacyDigest("oldpassword")
	u := s.repo.users[3]
	u.PasswordHash = &legacy
	s.repo.users[3] = u

	resp, err := s.svc.Signin(context.Background(), dto.SigninRequest{CinOrEmail: "karim@school.tn", Password: "oldpassword"})
	s.Require().NoError(err)
	s.Equal([]string{"administrative-staff"}, resp.Roles)

	stored := s.repo.users[3].Hash()
	s.False(password.IsLegacyFormat(stored))
	s.Equal(password.Match, s.codec.Verify("oldpassword", stored))

	s.Require().Len(s.publisher.events, 1)
	s.Equal(dto.EventPasswordMigrated, s.publisher.events[0].EventType)

	_, err = s.svc.Signin(context.Background(), dto.SigninRequest{CinOrEmail: "karim@school.tn", Password: "oldpassword"})
	s.NoError(err)
	s.Equal(1, s.repo.writes)
}

func (s *ServiceTestSuite) Test_SigninSucceedsWhenMigrationFails() {
	legacy := password.LegacyDigest("oldpassword")
	u := s.repo.users[3]
	u.PasswordHash = &legacy
	s.repo.users[3] = u
	s.repo.updateHashErr = errors.New("read-only replica")

	resp, err := s.svc.Signin(context.Background(), dto.SigninRequest{CinOrEmail: "karim@school.tn", Password: "oldpassword"})
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.Equal(legacy, s.repo.users[3].Hash())
	s.Empty(s.publisher.events)
}

func (s *ServiceTestSuite) Test_SigninDepartmentHead() {
	s.activate(2, "teacher-pass")
	s.repo.heads[2] = true

	resp, err := s.svc.Signin(context.Background(), dto.SigninRequest{CinOrEmail: "sonia@school.tn", Password: "teacher-pass"})
	s.Require().NoError(err)
	s.Equal([]string{"teacher", "department-head"}, resp.Roles)

	result := s.issuer.Validate(resp.AccessToken)
	s.Equal([]string{"teacher", "department-head"}, result.Claims.Roles)
}

func (s *ServiceTestSuite) Test_SigninUnknownRole() {
	s.activate(4, "whatever-pass")

	resp, err := s.svc.Signin(context.Background(), dto.SigninRequest{CinOrEmail: "nadia@school.tn", Password: "whatever-pass"})
	s.Require().NoError(err)
	s.Empty(resp.Roles)
	s.NotNil(resp.Roles)
}

func (s *ServiceTestSuite) Test_SigninInternalFailures() {
	s.activate(2, "teacher-pass")

	s.repo.headErr = errors.New("timeout")
	_, err := s.svc.Signin(context.Background(), dto.SigninRequest{CinOrEmail: "sonia@school.tn", Password: "teacher-pass"})
	s.ErrorIs(err, errs.ErrInternalServer)

	s.repo.headErr = nil
	s.repo.lookupErr = errors.New("db down")
	_, err = s.svc.Signin(context.Background(), dto.SigninRequest{CinOrEmail: "sonia@school.tn", Password: "teacher-pass"})
	s.ErrorIs(err, errs.ErrInternalServer)
}

func (s *ServiceTestSuite) Test_SignupThenSignin() {
	s.Require().NoError(s.svc.Signup(context.Background(), dto.SignupRequest{CIN: "11223344", Email: "sonia@school.tn"}))
	plain := s.mailedPassword(0)

	resp, err := s.svc.Signin(context.Background(), dto.SigninRequest{CinOrEmail: "11223344", Password: plain})
	s.Require().NoError(err)
	s.Equal([]string{"teacher"}, resp.Roles)
}

func (s *ServiceTestSuite) Test_RoleResolver() {
	resolver := NewRoleResolver(s.repo)
	s.repo.heads[2] = true

	testCases := []struct {
		user     domain.User
		expected []string
	}{
		{domain.User{ID: 1, Role: domain.RoleStudent}, []string{"student"}},
		{domain.User{ID: 2, Role: domain.RoleTeacher}, []string{"teacher", "department-head"}},
		{domain.User{ID: 5, Role: domain.RoleTeacher}, []string{"teacher"}},
		{domain.User{ID: 3, Role: domain.RoleAdministrativeStaff}, []string{"administrative-staff"}},
		{domain.User{ID: 4, Role: domain.Role("janitor")}, []string{}},
	}

	for _, tc := range testCases {
		roles, err := resolver.Resolve(context.Background(), tc.user)
		s.NoError(err)
		s.Equal(tc.expected, roles)
	}
}
