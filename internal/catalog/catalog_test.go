package catalog_test

import (
	"context"
	"testing"

	"medai-backend/internal/catalog"
	"medai-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDatabase(t *testing.T) {
	db, err := database.Open(database.InMemory)
	require.NoError(t, err)

	c, err := catalog.Load(context.Background(), db)
	require.NoError(t, err)

	models := c.List()
	require.Len(t, models, 5)
	assert.Equal(t, catalog.Descriptor{
		Id:          "densenet121",
		Name:        "DenseNet121",
		Description: "121-layer Densely Connected Network",
		Accuracy:    "95.1%",
	}, models[3])

	fed, ok := c.Get("federated")
	require.True(t, ok)
	assert.Equal(t, "Federated Global Model", fed.Name)

	assert.True(t, c.Contains("vgg19"))
	assert.False(t, c.Contains("alexnet"))
}

func TestListDoesNotExposeInternals(t *testing.T) {
	c := catalog.New([]catalog.Descriptor{{Id: "cnn", Name: "CNN"}})

	models := c.List()
	models[0].Name = "changed"

	got, ok := c.Get("cnn")
	require.True(t, ok)
	assert.Equal(t, "CNN", got.Name)
}
