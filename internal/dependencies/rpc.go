package dependencies

import (
	"context"
	"fmt"
	"time"

	"explorer/config"
	"explorer/internal/generator"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	methodLoad      = "/stylegan.Generator/Load"
	methodMapping   = "/stylegan.Generator/Mapping"
	methodSynthesis = "/stylegan.Generator/Synthesis"
)

// Rpc talks to the python model server. Every message is a
// google.protobuf.Struct, so no generated stubs are needed.
type Rpc struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	log     *log.Logger
}

func NewRpc(config config.RpcConfig, opts ...grpc.DialOption) (*Rpc, error) {
	timeout := config.Timeout()
	if timeout <= 0 {
		timeout = 240 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	}, opts...)

	conn, err := grpc.DialContext(ctx, fmt.Sprint(config.Peer, ":", config.Port), dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("error creating newrpc: %w", err)
	}

	return &Rpc{
		conn:    conn,
		timeout: timeout,
		log:     log.With("component", "rpc"),
	}, nil
}

func (r *Rpc) invoke(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp := &structpb.Struct{}
	if err := r.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	r.log.Debug("rpc completed", "method", method, "dur", time.Since(start).String())
	return resp, nil
}

func (r *Rpc) Load(ctx context.Context, weightsPath string, device int) (generator.NetworkInfo, error) {
	resp, err := r.invoke(ctx, methodLoad, map[string]any{
		"weights_path": weightsPath,
		"device":       device,
	})
	if err != nil {
		return generator.NetworkInfo{}, err
	}

	f := resp.GetFields()
	info := generator.NetworkInfo{
		ZDim:       intField(f, "z_dim"),
		CDim:       intField(f, "c_dim"),
		WDim:       intField(f, "w_dim"),
		NumWs:      intField(f, "num_ws"),
		Resolution: intField(f, "resolution"),
	}
	for _, v := range f["networks"].GetListValue().GetValues() {
		info.Networks = append(info.Networks, v.GetStringValue())
	}
	return info, nil
}

func (r *Rpc) Mapping(ctx context.Context, z, c []float64, truncationPsi float64) (generator.Representation, error) {
	resp, err := r.invoke(ctx, methodMapping, map[string]any{
		"z":              float64sToList(z),
		"c":              float64sToList(c),
		"truncation_psi": truncationPsi,
	})
	if err != nil {
		return generator.Representation{}, err
	}

	f := resp.GetFields()
	data, err := decodeFloat32s(f["ws"].GetStringValue())
	if err != nil {
		return generator.Representation{}, fmt.Errorf("%s: %w", methodMapping, err)
	}
	rep := generator.Representation{
		NumWs: intField(f, "num_ws"),
		WDim:  intField(f, "w_dim"),
		Data:  data,
	}
	if rep.NumWs*rep.WDim != len(rep.Data) {
		return generator.Representation{}, fmt.Errorf("%s: %w: %dx%d with %d values", methodMapping, generator.ErrTensorShape, rep.NumWs, rep.WDim, len(rep.Data))
	}
	return rep, nil
}

func (r *Rpc) Synthesis(ctx context.Context, ws generator.Representation, mode generator.NoiseMode) (generator.Tensor, error) {
	resp, err := r.invoke(ctx, methodSynthesis, map[string]any{
		"num_ws":     ws.NumWs,
		"w_dim":      ws.WDim,
		"ws":         encodeFloat32s(ws.Data),
		"noise_mode": string(mode),
	})
	if err != nil {
		return generator.Tensor{}, err
	}

	f := resp.GetFields()
	data, err := decodeFloat32s(f["image"].GetStringValue())
	if err != nil {
		return generator.Tensor{}, fmt.Errorf("%s: %w", methodSynthesis, err)
	}
	return generator.Tensor{
		Channels: intField(f, "channels"),
		Height:   intField(f, "height"),
		Width:    intField(f, "width"),
		Data:     data,
	}, nil
}

func (r *Rpc) Close() {
	r.conn.Close()
}

func intField(f map[string]*structpb.Value, key string) int {
	return int(f[key].GetNumberValue())
}
