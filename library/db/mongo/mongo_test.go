package mongo

import (
	"context"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// stubDriver replaces the driver hooks for one test
func stubDriver(t *testing.T, pingErr error) (disconnects *int) {
	t.Helper()
	oldConnect, oldPing, oldDisconnect := connectMongo, pingMongo, disconnectMongo
	n := 0

	connectMongo = func(ctx context.Context, _ *options.ClientOptions) (*mongo.Client, error) {
		cli, err := mongo.NewClient(options.Client().ApplyURI("mongodb://example.com"))
		if err != nil {
			return nil, errors.Wrap(err, "new client")
		}
		return cli, nil
	}
	pingMongo = func(context.Context, *mongo.Client) error {
		return pingErr
	}
	disconnectMongo = func(context.Context, *mongo.Client) error {
		n++
		return nil
	}

	t.Cleanup(func() {
		connectMongo, pingMongo, disconnectMongo = oldConnect, oldPing, oldDisconnect
	})
	return &n
}

func TestBuildMongoURI(t *testing.T) {
	require.Equal(t, "mongodb://localhost:27017/blog",
		buildMongoURI(DialInfo{Addr: "localhost:27017", DBName: "blog"}))
	require.Equal(t, "mongodb://u:p%40ss@db:27017/blog?authSource=admin",
		buildMongoURI(DialInfo{Addr: "db:27017", DBName: "blog", User: "u", Pwd: "p@ss", AuthDB: "admin"}))
}

func TestNewDB(t *testing.T) {
	disconnects := stubDriver(t, nil)
	ctx := context.Background()

	d, err := NewDB(ctx, DialInfo{Addr: "localhost:27017", DBName: "blog"})
	require.NoError(t, err)
	require.Equal(t, "blog", d.CurrentDB().Name())
	require.Equal(t, "posts", d.GetCol("posts").Name())

	require.NoError(t, d.Close(ctx))
	require.Equal(t, 1, *disconnects)
}

func TestNewDBPingFailure(t *testing.T) {
	disconnects := stubDriver(t, errors.New("no server"))

	_, err := NewDB(context.Background(), DialInfo{Addr: "localhost:27017", DBName: "blog"})
	require.ErrorContains(t, err, "ping db")
	require.Equal(t, 1, *disconnects, "client must be released when ping fails")
}
