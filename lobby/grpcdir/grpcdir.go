package grpcdir

import (
	"context"
	"fmt"
	"net/url"

	"dolphinretro/lobby"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

const driverName = "grpc"

// Directory lists sessions from a lobby server's gRPC endpoint.
type Directory struct {
	cc *grpc.ClientConn
}

func Dial(target string) (*Directory, error) {
	cc, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpcdir: dial %s: %w", target, err)
	}
	return &Directory{cc: cc}, nil
}

func (d *Directory) List(ctx context.Context, filters map[string]string) ([]lobby.Session, error) {
	req, err := toStruct(listRequest{Filters: filters})
	if err != nil {
		return nil, err
	}

	rsp := new(structpb.Struct)
	if err = d.cc.Invoke(ctx, listSessionsMethod, req, rsp); err != nil {
		return nil, fmt.Errorf("grpcdir: list sessions: %w", err)
	}
	return decodeListResponse(rsp)
}

func (d *Directory) Close() error {
	return d.cc.Close()
}

type Driver struct{}

func (Driver) Open(u *url.URL) (lobby.Directory, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("grpcdir: missing host in %q", u.String())
	}
	return Dial(u.Host)
}

func init() {
	lobby.Register(driverName, Driver{})
}
