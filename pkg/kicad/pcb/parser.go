package pcb

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// Minimum supported KiCad version (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad board file
func ParseFile(filename string) (*Board, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads and parses a KiCad board from an io.Reader
func Parse(r io.Reader) (*Board, error) {
	sexps, err := kicadsexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}

	if len(sexps) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	// The root should be a (kicad_pcb ...) expression
	root := sexps[0]

	rootName, err := sexp.GetNodeName(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get root node name: %w", err)
	}

	if rootName != "kicad_pcb" || root.IsLeaf() {
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got '%s'", rootName)
	}

	version, generator, err := parseHeader(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	board := &Board{
		Version:   version,
		Generator: generator,
	}

	if generalNode, found := sexp.FindNode(root, "general"); found {
		board.General = parseGeneral(generalNode)
	}
	if titleNode, found := sexp.FindNode(root, "title_block"); found {
		parseTitleBlock(titleNode, &board.General)
	}

	if layersNode, found := sexp.FindNode(root, "layers"); found {
		layers, err := parseLayers(layersNode)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layers section: %w", err)
		}
		board.Layers = layers
	}

	nets, err := parseNets(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nets: %w", err)
	}
	board.Nets = nets
	board.unconnected()

	var groupNodes []kicadsexp.Sexp
	counts := map[string]int{}
	for _, node := range sexp.GetListItems(root) {
		if node.IsLeaf() {
			continue
		}
		name, err := sexp.GetNodeName(node)
		if err != nil {
			board.extra = append(board.extra, node)
			continue
		}
		counts[name]++

		switch name {
		case "version", "generator", "host", "net":
			// Consumed by parseHeader and parseNets.
		case "footprint":
			fp, err := parseFootprint(node, board)
			if err != nil {
				return nil, fmt.Errorf("failed to parse footprint %d: %w", counts[name], err)
			}
			board.Footprints = append(board.Footprints, fp)
		case "segment", "arc":
			track, err := parseTrack(node, board)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s %d: %w", name, counts[name], err)
			}
			board.Tracks = append(board.Tracks, track)
		case "via":
			via, err := parseVia(node, board)
			if err != nil {
				return nil, fmt.Errorf("failed to parse via %d: %w", counts[name], err)
			}
			board.Tracks = append(board.Tracks, via)
		case "zone":
			zone, err := parseZone(node, board)
			if err != nil {
				return nil, fmt.Errorf("failed to parse zone %d: %w", counts[name], err)
			}
			board.Zones = append(board.Zones, zone)
		case "gr_line", "gr_rect", "gr_circle", "gr_arc", "gr_poly", "gr_text":
			d, err := parseDrawing(node, name)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s %d: %w", name, counts[name], err)
			}
			board.Drawings = append(board.Drawings, d)
		case "group":
			groupNodes = append(groupNodes, node)
		default:
			board.extra = append(board.extra, node)
		}
	}

	if err := parseGroups(groupNodes, board); err != nil {
		return nil, err
	}

	return board, nil
}

// parseHeader extracts version and generator information from the root node
// Expected format: (kicad_pcb (version 20221018) (generator pcbnew) ...)
func parseHeader(root kicadsexp.Sexp) (version int, generator string, err error) {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return 0, "", fmt.Errorf("missing required 'version' field")
	}

	ver, err := sexp.GetInt(versionNode, 1)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	// Validate version (must be KiCad 6.0 or later)
	if ver < MinSupportedVersion {
		return 0, "", fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}

	gen := "unknown"
	if hostNode, found := sexp.FindNode(root, "host"); found {
		// Example: (host pcbnew "(6.0.0)")
		if toolName, err := sexp.GetString(hostNode, 1); err == nil {
			gen = toolName
		}
	} else if genNode, found := sexp.FindNode(root, "generator"); found {
		if generatorName, err := sexp.GetString(genNode, 1); err == nil {
			gen = generatorName
		}
	}

	return ver, gen, nil
}

// parseGeneral extracts general board properties
// Expected format: (general (thickness 1.6) ...)
func parseGeneral(node kicadsexp.Sexp) General {
	var general General
	if thicknessNode, found := sexp.FindNode(node, "thickness"); found {
		if thickness, err := sexp.GetFloat(thicknessNode, 1); err == nil {
			general.Thickness = thickness
		}
	}
	return general
}

// parseTitleBlock fills the descriptive fields from (title_block (title ..) (date ..) ...)
func parseTitleBlock(node kicadsexp.Sexp, general *General) {
	fields := map[string]*string{
		"title":   &general.Title,
		"date":    &general.Date,
		"rev":     &general.Revision,
		"company": &general.Company,
	}
	for key, dst := range fields {
		if n, found := sexp.FindNode(node, key); found {
			if v, err := sexp.GetString(n, 1); err == nil {
				*dst = v
			}
		}
	}
}

// parseLayers extracts layer definitions
// Expected format: (layers (0 "F.Cu" signal) (31 "B.Cu" signal) ...)
func parseLayers(node kicadsexp.Sexp) ([]Layer, error) {
	if node.IsLeaf() {
		return nil, fmt.Errorf("expected (layers ...) list")
	}

	layerNodes := sexp.GetListItems(node)
	if len(layerNodes) == 0 {
		return nil, fmt.Errorf("no layers defined")
	}

	var layers []Layer
	for _, layerNode := range layerNodes {
		if layerNode.IsLeaf() {
			continue
		}

		number, err := sexp.GetInt(layerNode, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer number: %w", err)
		}

		name, err := sexp.GetString(layerNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer name: %w", err)
		}

		layerType, err := sexp.GetString(layerNode, 2)
		if err != nil {
			layerType = "user"
		}

		layers = append(layers, Layer{Number: number, Name: name, Type: layerType})
	}

	return layers, nil
}

// parseNets extracts net definitions from the root node
// Expected format: (net 0 "") (net 1 "GND") (net 2 "+5V") ...
func parseNets(root kicadsexp.Sexp) ([]*Net, error) {
	netNodes := sexp.FindAllNodes(root, "net")
	nets := make([]*Net, 0, len(netNodes))

	for _, netNode := range netNodes {
		code, err := sexp.GetInt(netNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net number: %w", err)
		}

		// Name is optional (net 0 often has empty name)
		name, _ := sexp.GetString(netNode, 2)
		nets = append(nets, &Net{Code: code, Name: name})
	}

	return nets, nil
}

// parseNetRef resolves an item's (net N) or (net "name") child against the board.
func parseNetRef(node kicadsexp.Sexp, board *Board) *Net {
	netNode, found := sexp.FindNode(node, "net")
	if !found || netNode.IsLeaf() {
		return board.FindNet(Unconnected)
	}
	if code, err := sexp.GetInt(netNode, 1); err == nil {
		return board.FindNet(code)
	}
	if name, err := sexp.GetString(netNode, 1); err == nil {
		if n := board.GetNet(name); n != nil {
			return n
		}
	}
	return board.FindNet(Unconnected)
}

// parseItemUUID returns the node's uuid, minting one for files that lack it.
func parseItemUUID(node kicadsexp.Sexp) UUID {
	if id, ok := sexp.GetUUID(node); ok {
		return id
	}
	return NewUUID()
}

// parseGroups resolves group members by UUID. Members that are not
// modelled items are kept as foreign references.
func parseGroups(nodes []kicadsexp.Sexp, board *Board) error {
	byID := make(map[UUID]Item)
	for _, it := range board.Items() {
		byID[it.ID()] = it
	}

	for i, node := range nodes {
		name, err := sexp.GetString(node, 1)
		if err != nil {
			return fmt.Errorf("failed to parse group %d name: %w", i+1, err)
		}

		g := &Group{Name: name, Locked: sexp.GetFlag(node, "locked")}
		if idNode, found := sexp.FindNode(node, "id"); found {
			if id, err := sexp.GetString(idNode, 1); err == nil {
				g.UUID = UUID(id)
			}
		}
		if g.UUID == "" {
			g.UUID = parseItemUUID(node)
		}

		if membersNode, found := sexp.FindNode(node, "members"); found {
			for _, m := range sexp.GetListItems(membersNode) {
				id, ok := sexp.Atom(m)
				if !ok {
					continue
				}
				if it, ok := byID[UUID(id)]; ok && it.ParentGroup() == nil {
					g.Add(it)
				} else {
					g.foreign = append(g.foreign, UUID(id))
				}
			}
		}
		board.Groups = append(board.Groups, g)
	}
	return nil
}
