package fabrica

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type user struct {
	GivenName  string
	FamilyName string
	Admin      bool
	Email      string
}

type post struct {
	Author *user
	Title  string
	Body   string
	Status string
}

type comment struct {
	TodoItem  *post
	Commenter *user
	Body      string
}

func TestDefine_DefaultFactory(t *testing.T) {
	reg := New(WithSeed(1))
	Define[user](reg).
		Set("GivenName", "John").
		Set("FamilyName", "Doe")

	require.Equal(t, 1, reg.Len())

	u, err := Build[user](reg)
	require.NoError(t, err)
	require.Equal(t, "John", u.GivenName)
	require.Equal(t, "Doe", u.FamilyName)
}

func TestDefine_MultipleAliases(t *testing.T) {
	reg := New(WithSeed(1))
	Define[user](reg, "user", "admin").
		Set("GivenName", "John").
		Set("FamilyName", "Doe").
		Set("Admin", false).
		Set("Email", "john@example.com")

	for _, alias := range []string{"user", "admin"} {
		u, err := Build[user](reg, WithAlias(alias))
		require.NoError(t, err)
		require.Equal(t, &user{GivenName: "John", FamilyName: "Doe", Email: "john@example.com"}, u)
	}
}

func TestDefine_AliasInheritsDefault(t *testing.T) {
	reg := New(WithSeed(1))
	Define[user](reg).Set("GivenName", "John").Set("FamilyName", "Doe")
	Define[user](reg, "admin").Set("Admin", true)

	u, err := Build[user](reg, WithAlias("admin"))
	require.NoError(t, err)
	require.Equal(t, "John", u.GivenName, "aliased factories inherit the default declarations")
	require.True(t, u.Admin)
}

func TestDefine_Reopen(t *testing.T) {
	reg := New(WithSeed(1))
	Define[user](reg).Set("GivenName", "John")
	Define[user](reg).Set("FamilyName", "Doe")

	u, err := Build[user](reg)
	require.NoError(t, err)
	require.Equal(t, "John", u.GivenName)
	require.Equal(t, "Doe", u.FamilyName)
}

type missing struct{ X int }

func TestBuild_FactoryNotFound(t *testing.T) {
	reg := New(WithSeed(1))

	_, err := Build[missing](reg)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, Name{Model: ModelOf[missing]()}, notFound.Name)
}

func TestBuild_UnknownAliasDoesNotFallBack(t *testing.T) {
	reg := New(WithSeed(1))
	Define[user](reg).Set("GivenName", "John")

	_, err := Build[user](reg, WithAlias("nope"))
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "nope", notFound.Name.Alias)
}

func TestDerive_Conflict(t *testing.T) {
	reg := New(WithSeed(1))
	main := Define[user](reg)
	derived1, err := main.Derive("derived1")
	require.NoError(t, err)
	derived2, err := derived1.Derive("derived2")
	require.NoError(t, err)
	_, err = derived2.Derive("derived3")
	require.NoError(t, err)

	_, err = main.Derive("derived2")
	var derivErr *DerivationError
	require.ErrorAs(t, err, &derivErr)
	require.Equal(t, "derived2", derivErr.Name.Alias)
	require.Equal(t, "derived1", derivErr.Existing)

	_, err = main.Derive("derived3")
	require.ErrorAs(t, err, &derivErr)
}

func TestDerive_SameParentIsIdempotent(t *testing.T) {
	reg := New(WithSeed(1))
	main := Define[user](reg)
	_, err := main.Derive("child")
	require.NoError(t, err)
	_, err = main.Derive("child")
	require.NoError(t, err, "re-deriving from the same parent succeeds")
	require.Equal(t, 2, reg.Len())
}

func TestDeriveFrom(t *testing.T) {
	reg := New(WithSeed(1))
	Define[user](reg, "parent").Set("GivenName", "John")

	_, err := DeriveFrom[user](reg, "parent", "child")
	require.NoError(t, err)

	u, err := Build[user](reg, WithAlias("child"))
	require.NoError(t, err)
	require.Equal(t, "John", u.GivenName)

	_, err = DeriveFrom[user](reg, "absent", "orphan")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDerive_RequiresAlias(t *testing.T) {
	reg := New(WithSeed(1))
	main := Define[user](reg)
	require.Panics(t, func() { _, _ = main.Derive() })
}

func TestRegistry_Reset(t *testing.T) {
	reg := New(WithSeed(1))
	Define[user](reg).Set("GivenName", "John")
	require.Equal(t, 1, reg.Len())

	reg.Reset()
	require.Equal(t, 0, reg.Len())

	_, err := Build[user](reg)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestName_String(t *testing.T) {
	require.Equal(t, "user", Name{Model: ModelOf[user]()}.String())
	require.Equal(t, "user(admin)", Name{Model: ModelOf[user](), Alias: "admin"}.String())
}

func TestHook_UnknownEventPanics(t *testing.T) {
	reg := New(WithSeed(1))
	def := Define[user](reg)
	require.Panics(t, func() {
		def.Hook("around_build", func(any, Context) error { return nil })
	})
}
